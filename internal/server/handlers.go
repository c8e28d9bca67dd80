package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/imglocate/internal/annotation"
	"github.com/ironsheep/imglocate/internal/annotator"
	"github.com/ironsheep/imglocate/internal/detection"
	"github.com/ironsheep/imglocate/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "annotate", "search").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warnw("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "annotate":
		return s.handleAnnotate(ctx, args)
	case "search":
		return s.handleSearch(args)
	case "read_annotations":
		return s.handleReadAnnotations(args)
	case "draw_annotations":
		return s.handleDrawAnnotations(args)
	case "crop_detection":
		return s.handleCropDetection(args)
	case "image_info":
		return s.handleImageInfo(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Annotation Handlers ===

type annotateArgs struct {
	Paths  []string `json:"paths"`
	Force  bool     `json:"force"`
	DryRun bool     `json:"dry_run"`
}

type outcomeResult struct {
	annotator.Outcome
	Error string `json:"error,omitempty"`
}

type annotateResult struct {
	Outcomes  []outcomeResult `json:"outcomes"`
	Annotated int             `json:"annotated"`
	Unchanged int             `json:"unchanged"`
	Failed    int             `json:"failed"`
}

func (s *Server) handleAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a annotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must not be empty")
	}
	if s.engine == nil {
		return nil, fmt.Errorf("no detection engine configured")
	}

	ann := annotator.New(s.engine, s.cache, s.params,
		annotator.WithForce(a.Force),
		annotator.WithDryRun(a.DryRun),
		annotator.WithLogger(s.logger))
	report := ann.Annotate(ctx, a.Paths)

	res := annotateResult{
		Outcomes:  make([]outcomeResult, len(report.Outcomes)),
		Annotated: report.Count(annotator.Annotated),
		Unchanged: report.Count(annotator.Unchanged),
		Failed:    report.Failed(),
	}
	for i, o := range report.Outcomes {
		res.Outcomes[i] = outcomeResult{Outcome: o}
		if o.Err != nil {
			res.Outcomes[i].Error = o.Err.Error()
		}
	}
	return res, nil
}

type searchArgs struct {
	Label string   `json:"label"`
	Paths []string `json:"paths"`
}

type searchResult struct {
	Label   string   `json:"label"`
	Matches []string `json:"matches"`
	// Error lists the annotations that could not be read; the other images
	// are still searched.
	Error string `json:"error,omitempty"`
}

func (s *Server) handleSearch(args json.RawMessage) (interface{}, error) {
	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Label == "" {
		return nil, fmt.Errorf("label must not be empty")
	}

	matches, err := s.searcher.Search(a.Label, a.Paths)
	res := searchResult{Label: a.Label, Matches: matches}
	if err != nil {
		res.Error = err.Error()
	}
	return res, nil
}

type pathArgs struct {
	Path string `json:"path"`
}

type readAnnotationsResult struct {
	annotation.Set
	AnnotationPath string `json:"annotation_path"`
	Fresh          bool   `json:"fresh"`
}

func (s *Server) handleReadAnnotations(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	set, err := annotation.ReadSet(a.Path)
	if err != nil {
		return nil, err
	}
	stale, err := annotation.IsStale(a.Path, false)
	if err != nil {
		return nil, err
	}

	return readAnnotationsResult{
		Set:            set,
		AnnotationPath: annotation.PathFor(a.Path),
		Fresh:          !stale,
	}, nil
}

type drawAnnotationsResult struct {
	Image      string `json:"image"`
	OutputPath string `json:"output_path"`
	Boxes      int    `json:"boxes"`
}

func (s *Server) handleDrawAnnotations(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	set, err := annotation.ReadSet(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := s.files.SaveAnnotated(set.Image, set.Detections)
	if err != nil {
		return nil, err
	}

	return drawAnnotationsResult{Image: set.Image, OutputPath: out, Boxes: len(set.Detections)}, nil
}

type cropDetectionArgs struct {
	Path   string  `json:"path"`
	Index  int     `json:"index"`
	Margin int     `json:"margin"`
	Scale  float64 `json:"scale"`
}

type cropDetectionResult struct {
	Detection detection.Detection `json:"detection"`
	*imaging.CropResult
}

func (s *Server) handleCropDetection(args json.RawMessage) (interface{}, error) {
	var a cropDetectionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	set, err := annotation.ReadSet(a.Path)
	if err != nil {
		return nil, err
	}
	dets := set.Detections
	if a.Index < 0 || a.Index >= len(dets) {
		return nil, fmt.Errorf("detection index %d out of range [0,%d)", a.Index, len(dets))
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	crop, err := imaging.CropDetection(img, dets[a.Index].Box, a.Margin, a.Scale)
	if err != nil {
		return nil, err
	}
	return cropDetectionResult{Detection: dets[a.Index], CropResult: crop}, nil
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.files.LoadImageInfo(a.Path)
}

package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Image file paths. Annotation files live next to each image as <image>.txt",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "annotate",
			Description: "Run object detection on images and store the detections next to each image. Images whose annotation is newer than the image are skipped unless force is set.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": pathsProperty(),
					"force": map[string]interface{}{
						"type":        "boolean",
						"description": "Re-detect even when the annotation is fresh. Default false",
						"default":     false,
					},
					"dry_run": map[string]interface{}{
						"type":        "boolean",
						"description": "Return detections without writing annotation files. Default false",
						"default":     false,
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "search",
			Description: "List the images whose annotations contain a label. Matching is exact and case-sensitive; images without annotations are skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Label to look for, e.g. \"person\"",
					},
					"paths": pathsProperty(),
				},
				"required": []string{"label", "paths"},
			},
		},
		{
			Name:        "read_annotations",
			Description: "Return the stored detections of an image and whether they are still fresh.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "draw_annotations",
			Description: "Draw the stored detections of an image as labelled boxes and save the result as <name>.annotated.<ext>.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "crop_detection",
			Description: "Crop one stored detection out of its image and return it as base64-encoded PNG. Use this to look closely at what was detected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "0-based position of the detection in the annotation file",
					},
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "Extra pixels kept around the box on every side. Default 0",
						"default":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "index"},
			},
		},
		{
			Name:        "image_info",
			Description: "Get the width, height, format and file size of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

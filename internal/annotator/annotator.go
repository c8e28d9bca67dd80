// Package annotator drives detection over a batch of images: it checks each
// image's annotation for staleness, runs the detector and postprocessor when
// needed, and persists or returns the result.
package annotator

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/imglocate/internal/annotation"
	"github.com/ironsheep/imglocate/internal/detection"
)

// ImageSource decodes the image stored at a path.
type ImageSource interface {
	Load(path string) (image.Image, error)
}

// Status classifies what happened to one image.
type Status int

const (
	// Annotated means detection ran and the result was written (or, in
	// dry-run mode, returned).
	Annotated Status = iota
	// Unchanged means the existing annotation was fresh and detection was skipped.
	Unchanged
	// Failed means the image could not be processed; see Outcome.Err.
	Failed
)

func (s Status) String() string {
	switch s {
	case Annotated:
		return "annotated"
	case Unchanged:
		return "unchanged"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status name, used by the JSON tool output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the per-image result of Annotate.
type Outcome struct {
	Image  string `json:"image"`
	Status Status `json:"status"`

	// AnnotationPath is the annotation file for Image.
	AnnotationPath string `json:"annotation_path"`

	// Written is true when AnnotationPath was (re)written during this run.
	Written bool `json:"written"`

	// Detections holds the detections in dry-run mode, both for freshly
	// annotated and unchanged images. It is nil when the result was persisted.
	Detections []detection.Detection `json:"detections,omitempty"`

	Err error `json:"-"`
}

// Report accumulates the outcomes of one Annotate call, in input order.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Failed returns the number of images that failed.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == Failed {
			n++
		}
	}
	return n
}

// Count returns the number of outcomes with the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Err combines every per-image error, or returns nil when all images succeeded.
func (r *Report) Err() error {
	var err error
	for _, o := range r.Outcomes {
		if o.Status == Failed {
			err = multierr.Append(err, errors.Wrap(o.Err, o.Image))
		}
	}
	return err
}

// Annotator processes images one at a time. It holds no per-image state, so
// a single value may be reused across batches.
type Annotator struct {
	engine detection.Engine
	source ImageSource
	params detection.Params
	force  bool
	dryRun bool
	logger *zap.SugaredLogger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithForce bypasses the staleness check, re-detecting every image.
func WithForce(force bool) Option {
	return func(a *Annotator) { a.force = force }
}

// WithDryRun returns detections in the report instead of writing them.
func WithDryRun(dryRun bool) Option {
	return func(a *Annotator) { a.dryRun = dryRun }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(a *Annotator) { a.logger = logger }
}

// New creates an Annotator.
func New(engine detection.Engine, source ImageSource, params detection.Params, opts ...Option) *Annotator {
	a := &Annotator{
		engine: engine,
		source: source,
		params: params,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DryRun reports whether the annotator runs in dry-run mode.
func (a *Annotator) DryRun() bool {
	return a.dryRun
}

// Annotate processes images sequentially. A failure on one image is recorded
// in its Outcome and never stops the batch. If ctx is cancelled, images not
// yet started are marked failed with the context error.
func (a *Annotator) Annotate(ctx context.Context, images []string) *Report {
	report := &Report{Outcomes: make([]Outcome, 0, len(images))}
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			report.Outcomes = append(report.Outcomes, Outcome{
				Image:          img,
				Status:         Failed,
				AnnotationPath: annotation.PathFor(img),
				Err:            err,
			})
			continue
		}

		out := a.annotateOne(ctx, img)
		if out.Status == Failed {
			a.logger.Errorw("annotation failed", "image", img, "error", out.Err)
		}
		report.Outcomes = append(report.Outcomes, out)
	}
	return report
}

func (a *Annotator) annotateOne(ctx context.Context, img string) Outcome {
	out := Outcome{Image: img, AnnotationPath: annotation.PathFor(img)}
	a.logger.Infow("annotating", "image", img)

	stale, err := annotation.IsStale(img, a.force)
	if err != nil {
		return fail(out, err)
	}

	if !stale {
		a.logger.Infow("reusing existing annotations", "path", out.AnnotationPath)
		out.Status = Unchanged
		if a.dryRun {
			dets, err := annotation.Read(out.AnnotationPath)
			if err != nil {
				return fail(out, err)
			}
			out.Detections = dets
		}
		return out
	}

	dets, err := a.Detect(ctx, img)
	if err != nil {
		return fail(out, err)
	}

	if a.dryRun {
		out.Status = Annotated
		out.Detections = dets
		return out
	}

	a.logger.Infow("writing annotations", "path", out.AnnotationPath, "detections", len(dets))
	if _, err := annotation.Write(img, dets); err != nil {
		return fail(out, err)
	}
	out.Status = Annotated
	out.Written = true
	return out
}

// Detect loads one image, runs the engine and postprocesses its candidates.
// Nothing is written.
func (a *Annotator) Detect(ctx context.Context, img string) ([]detection.Detection, error) {
	a.logger.Debugw("loading image", "image", img)
	pixels, err := a.source.Load(img)
	if err != nil {
		return nil, errors.Wrap(err, "load image")
	}
	bounds := pixels.Bounds()

	a.logger.Infow("detecting objects", "image", img, "width", bounds.Dx(), "height", bounds.Dy())
	cands, err := a.engine.Detect(ctx, pixels)
	if err != nil {
		return nil, errors.Wrap(err, "inference")
	}

	a.logger.Debugw("running non-maximum suppression", "candidates", len(cands))
	return detection.Postprocess(cands, bounds.Dx(), bounds.Dy(), a.params)
}

func fail(out Outcome, err error) Outcome {
	out.Status = Failed
	out.Err = err
	out.Detections = nil
	return out
}

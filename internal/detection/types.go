package detection

import (
	"context"
	"image"
)

// RawBox is a candidate box as produced by the network, normalized to the
// network input: CX and CY are the box center, W and H its extent, each in
// [0,1] relative to the input size.
type RawBox struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
}

// Candidate is one raw detector output before filtering.
type Candidate struct {
	// Scores holds one confidence per label table entry.
	Scores []float64 `json:"scores"`

	// Box is the network-normalized bounding box.
	Box RawBox `json:"box"`
}

// Box is a bounding box in image pixel coordinates.
//
// (X, Y) is the top-left corner. Width and Height are always positive for
// boxes produced by Postprocess.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width × Height.
func (b Box) Area() int {
	return b.Width * b.Height
}

// Rect converts the box to an image.Rectangle (exclusive max corner).
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Detection is one recognized object instance.
type Detection struct {
	// Label is the class name from the label table.
	Label string `json:"label"`

	// Confidence is the selected class score, in [0,1].
	Confidence float64 `json:"confidence"`

	// Box is the pixel-space bounding box in the original image.
	Box Box `json:"box"`
}

// Params bundles everything Postprocess needs for one image. A fresh value is
// passed on every call; nothing is kept between images.
type Params struct {
	// Labels is the label table, indexed by class id.
	Labels []string

	// ConfidenceThreshold discards candidates whose best score is below it.
	ConfidenceThreshold float64

	// NMSThreshold is the IoU at or above which a same-class box is suppressed.
	NMSThreshold float64
}

// Engine runs an image through a detector network and returns its raw
// candidates. Implementations own network loading and the forward pass.
type Engine interface {
	Detect(ctx context.Context, img image.Image) ([]Candidate, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, img image.Image) ([]Candidate, error)

// Detect calls f(ctx, img).
func (f EngineFunc) Detect(ctx context.Context, img image.Image) ([]Candidate, error) {
	return f(ctx, img)
}

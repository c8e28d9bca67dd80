// Package engine provides concrete inference engines behind the
// detection.Engine interface.
//
// Two backends are available:
//
//   - "onnx": ONNX Runtime via github.com/yalue/onnxruntime_go. Needs the
//     onnxruntime shared library at run time.
//   - "darknet": OpenCV's DNN module via gocv, loading Darknet weights and cfg
//     the same way cv2.dnn.readNet does. Only compiled with the "gocv" build
//     tag, since it links against OpenCV.
//
// Both expect a network whose output is Region-layer rows (see DecodeRegion).
package engine

import (
	"fmt"

	"github.com/ironsheep/imglocate/internal/detection"
)

// Backend names accepted by New.
const (
	BackendDarknet = "darknet"
	BackendONNX    = "onnx"
)

// Defaults matching the classic 416×416 YOLOv3 preprocessing.
const (
	DefaultInputSize = 416
	DefaultScale     = 0.00392
)

// Engine is a detection.Engine that owns native resources.
type Engine interface {
	detection.Engine
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	// Backend is BackendDarknet or BackendONNX.
	Backend string

	// Weights is the model file (Darknet .weights or .onnx).
	Weights string

	// Config is the Darknet .cfg file; unused by the ONNX backend.
	Config string

	// NumClasses is the label table size.
	NumClasses int

	// InputSize is the square network input edge in pixels.
	InputSize int

	// Scale multiplies every 8-bit channel value before inference.
	Scale float32

	// ONNX-only settings.
	ONNXLibrary string
	InputName   string
	OutputName  string
	OutputRows  int
}

func (o *Options) setDefaults() {
	if o.InputSize <= 0 {
		o.InputSize = DefaultInputSize
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.InputName == "" {
		o.InputName = "images"
	}
	if o.OutputName == "" {
		o.OutputName = "output"
	}
	if o.OutputRows <= 0 {
		o.OutputRows = YOLORows(o.InputSize)
	}
}

// New loads the network described by opts.
func New(opts Options) (Engine, error) {
	opts.setDefaults()
	if opts.NumClasses <= 0 {
		return nil, fmt.Errorf("engine needs a non-empty label table")
	}

	switch opts.Backend {
	case BackendONNX:
		e, err := NewONNX(opts)
		if err != nil {
			return nil, err
		}
		return e, nil
	case BackendDarknet, "":
		e, err := NewDarknet(opts)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

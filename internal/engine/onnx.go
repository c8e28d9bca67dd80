package engine

import (
	"context"
	"fmt"
	"image"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/imglocate/internal/detection"
)

// ONNX runs a YOLO-style model with ONNX Runtime. The model must take one
// [1, 3, size, size] float32 input and produce one [1, rows, 5+classes]
// float32 output.
type ONNX struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	opts         Options
}

// NewONNX initializes the ONNX Runtime environment and loads the model. Only
// one ONNX engine may be open at a time since Close tears the environment down.
func NewONNX(opts Options) (*ONNX, error) {
	opts.setDefaults()

	if opts.ONNXLibrary != "" {
		ort.SetSharedLibraryPath(opts.ONNXLibrary)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	size := int64(opts.InputSize)
	inputShape := ort.NewShape(1, 3, size, size)
	outputShape := ort.NewShape(1, int64(opts.OutputRows), int64(regionPrefix+opts.NumClasses))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.Weights,
		[]string{opts.InputName}, []string{opts.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		opts:         opts,
	}, nil
}

// Detect implements detection.Engine.
func (e *ONNX) Detect(ctx context.Context, img image.Image) ([]detection.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	copy(e.inputTensor.GetData(), Blob(img, e.opts.InputSize, e.opts.Scale))

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return DecodeRegion(e.outputTensor.GetData(), e.opts.OutputRows, regionPrefix+e.opts.NumClasses, e.opts.NumClasses)
}

// Close releases the tensors, the session and the runtime environment.
func (e *ONNX) Close() error {
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
	}
	if e.session != nil {
		e.session.Destroy()
	}
	return ort.DestroyEnvironment()
}

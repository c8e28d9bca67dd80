//go:build gocv

package engine

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/ironsheep/imglocate/internal/detection"
)

// Darknet runs a Darknet (YOLO) network through OpenCV's DNN module.
type Darknet struct {
	net  gocv.Net
	outs []string
	opts Options
}

// NewDarknet loads weights and cfg with gocv.ReadNet. The network's last layer
// must be a Region layer.
func NewDarknet(opts Options) (*Darknet, error) {
	opts.setDefaults()

	for _, p := range []string{opts.Weights, opts.Config} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("model file not found: %w", err)
		}
	}

	net := gocv.ReadNet(opts.Weights, opts.Config)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network %s", opts.Weights)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable target: %w", err)
	}

	names := net.GetLayerNames()
	last := net.GetLayer(len(names))
	layerType := last.GetType()
	last.Close()
	if layerType != "Region" {
		net.Close()
		return nil, fmt.Errorf("unsupported output layer type %q, expected Region", layerType)
	}

	var outs []string
	for _, id := range net.GetUnconnectedOutLayers() {
		if id-1 < len(names) {
			outs = append(outs, names[id-1])
		}
	}

	return &Darknet{net: net, outs: outs, opts: opts}, nil
}

// Detect implements detection.Engine.
func (e *Darknet) Detect(ctx context.Context, img image.Image) ([]detection.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "convert image")
	}
	defer mat.Close()

	size := e.opts.InputSize
	blob := gocv.BlobFromImage(mat, float64(e.opts.Scale), image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	outputs := e.net.ForwardLayers(e.outs)
	defer func() {
		for _, m := range outputs {
			m.Close()
		}
	}()

	var cands []detection.Candidate
	for _, out := range outputs {
		data, err := out.DataPtrFloat32()
		if err != nil {
			return nil, errors.Wrap(err, "read network output")
		}
		decoded, err := DecodeRegion(data, out.Rows(), out.Cols(), e.opts.NumClasses)
		if err != nil {
			return nil, err
		}
		cands = append(cands, decoded...)
	}
	return cands, nil
}

// Close releases the network.
func (e *Darknet) Close() error {
	return e.net.Close()
}

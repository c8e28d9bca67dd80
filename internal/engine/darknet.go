//go:build !gocv

package engine

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/imglocate/internal/detection"
)

// ErrNoDarknet is returned by NewDarknet in builds without the gocv tag.
var ErrNoDarknet = errors.New("darknet backend not available: rebuild with -tags gocv")

// Darknet is unavailable in this build.
type Darknet struct{}

// NewDarknet always fails without the gocv build tag.
func NewDarknet(Options) (*Darknet, error) {
	return nil, ErrNoDarknet
}

// Detect implements detection.Engine.
func (*Darknet) Detect(context.Context, image.Image) ([]detection.Candidate, error) {
	return nil, ErrNoDarknet
}

// Close implements Engine.
func (*Darknet) Close() error {
	return nil
}

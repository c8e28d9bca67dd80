package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/imglocate/internal/detection"
)

// CropResult contains the cropped image data
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropDetection extracts the region of one detection, grown by margin pixels
// on every side and clipped to the image, and returns it as a base64 PNG.
// A scale other than 1 resizes the crop (e.g. 2.0 to inspect small objects).
func CropDetection(img image.Image, box detection.Box, margin int, scale float64) (*CropResult, error) {
	if margin < 0 {
		return nil, fmt.Errorf("margin must not be negative, got %d", margin)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", scale)
	}

	bounds := img.Bounds()
	r := box.Rect().Inset(-margin).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("box (%d,%d %dx%d) outside image bounds %v",
			box.X, box.Y, box.Width, box.Height, bounds)
	}

	cropped := imaging.Crop(img, r)

	if scale != 1.0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

package engine

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/pkg/errors"

	"github.com/ironsheep/imglocate/internal/detection"
)

// regionPrefix is the number of leading values in a Region-layer row:
// center x, center y, width, height and objectness.
const regionPrefix = 5

// DecodeRegion converts a Region-layer (YOLO/Darknet) output matrix into
// candidates.
//
// data holds rows × cols float32 values in row-major order. Each row is
// [cx, cy, w, h, objectness, score_0 … score_{n-1}] with n = numClasses; the
// class scores already include objectness and are used as-is. Extra columns
// beyond 5+numClasses are rejected.
func DecodeRegion(data []float32, rows, cols, numClasses int) ([]detection.Candidate, error) {
	if cols != regionPrefix+numClasses {
		return nil, errors.Wrapf(detection.ErrInvalidDetectionInput,
			"region output has %d columns, expected %d for %d classes", cols, regionPrefix+numClasses, numClasses)
	}
	if len(data) < rows*cols {
		return nil, errors.Wrapf(detection.ErrInvalidDetectionInput,
			"region output has %d values, expected %d", len(data), rows*cols)
	}

	cands := make([]detection.Candidate, rows)
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]
		scores := make([]float64, numClasses)
		for c := range scores {
			scores[c] = float64(row[regionPrefix+c])
		}
		cands[r] = detection.Candidate{
			Scores: scores,
			Box: detection.RawBox{
				CX: float64(row[0]),
				CY: float64(row[1]),
				W:  float64(row[2]),
				H:  float64(row[3]),
			},
		}
	}
	return cands, nil
}

// Blob resizes img to size × size and lays it out as a planar (NCHW) RGB
// float32 tensor with every channel value multiplied by scale.
func Blob(img image.Image, size int, scale float32) []float32 {
	resized := transform.Resize(img, size, size, transform.Linear)
	plane := size * size
	blob := make([]float32, 3*plane)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := resized.PixOffset(x, y)
			p := y*size + x
			blob[p] = float32(resized.Pix[i]) * scale
			blob[plane+p] = float32(resized.Pix[i+1]) * scale
			blob[2*plane+p] = float32(resized.Pix[i+2]) * scale
		}
	}
	return blob
}

// YOLORows returns the number of Region rows a three-scale YOLOv3 network
// with 3 anchors per cell emits for a square input of the given size.
func YOLORows(size int) int {
	rows := 0
	for _, stride := range []int{32, 16, 8} {
		cells := size / stride
		rows += 3 * cells * cells
	}
	return rows
}

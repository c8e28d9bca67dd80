package engine

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/imglocate/internal/detection"
)

func TestDecodeRegion(t *testing.T) {
	data := []float32{
		0.5, 0.5, 0.25, 0.5, 0.9, 0.1, 0.8,
		0.1, 0.2, 0.3, 0.4, 0.2, 0.05, 0.0,
	}

	got, err := DecodeRegion(data, 2, 7, 2)
	if err != nil {
		t.Fatalf("DecodeRegion failed: %v", err)
	}

	want := []detection.Candidate{
		{Scores: []float64{f(0.1), f(0.8)}, Box: detection.RawBox{CX: 0.5, CY: 0.5, W: 0.25, H: 0.5}},
		{Scores: []float64{f(0.05), 0}, Box: detection.RawBox{CX: f(0.1), CY: f(0.2), W: f(0.3), H: f(0.4)}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeRegion mismatch (-want +got):\n%s", diff)
	}
}

// f returns the float64 value a float32 literal widens to.
func f(v float32) float64 {
	return float64(v)
}

func TestDecodeRegionErrors(t *testing.T) {
	tests := []struct {
		name       string
		data       []float32
		rows, cols int
		classes    int
	}{
		{"column mismatch", make([]float32, 14), 2, 7, 3},
		{"short data", make([]float32, 10), 2, 7, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRegion(tt.data, tt.rows, tt.cols, tt.classes)
			if !errors.Is(err, detection.ErrInvalidDetectionInput) {
				t.Errorf("expected ErrInvalidDetectionInput, got %v", err)
			}
		})
	}
}

func TestDecodeRegionEmpty(t *testing.T) {
	got, err := DecodeRegion(nil, 0, 6, 1)
	if err != nil {
		t.Fatalf("DecodeRegion failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
}

func TestBlob(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 100, B: 0, A: 255})
		}
	}

	const size = 4
	blob := Blob(img, size, 1.0/255)
	if len(blob) != 3*size*size {
		t.Fatalf("expected %d values, got %d", 3*size*size, len(blob))
	}

	plane := size * size
	for p := 0; p < plane; p++ {
		if math.Abs(float64(blob[p])-1) > 1e-3 {
			t.Fatalf("red plane[%d] = %v, expected 1", p, blob[p])
		}
		if math.Abs(float64(blob[plane+p])-100.0/255) > 1e-3 {
			t.Fatalf("green plane[%d] = %v, expected %v", p, blob[plane+p], 100.0/255)
		}
		if blob[2*plane+p] != 0 {
			t.Fatalf("blue plane[%d] = %v, expected 0", p, blob[2*plane+p])
		}
	}
}

func TestYOLORows(t *testing.T) {
	// 13×13 + 26×26 + 52×52 cells, three anchors each.
	if got := YOLORows(416); got != 10647 {
		t.Errorf("YOLORows(416) = %d, expected 10647", got)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Backend: BackendONNX}); err == nil {
		t.Error("expected error for empty label table")
	}
	if _, err := New(Options{Backend: "tflite", NumClasses: 1}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

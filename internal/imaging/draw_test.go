package imaging

import (
	"image"
	"image/color"
	"os"
	"testing"

	"github.com/ironsheep/imglocate/internal/detection"
)

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1>>8 == r2>>8 && g1>>8 == g2>>8 && b1>>8 == b2>>8 && a1>>8 == a2>>8
}

func TestLabelColor_Stable(t *testing.T) {
	if !sameColor(LabelColor("person"), LabelColor("person")) {
		t.Error("same label should map to the same colour")
	}
}

func TestDrawDetections(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	det := detection.Detection{Label: "dog", Confidence: 0.9, Box: detection.Box{X: 20, Y: 40, Width: 50, Height: 30}}

	out := DrawDetections(src, []detection.Detection{det})

	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds changed: got %v, want %v", out.Bounds(), src.Bounds())
	}
	want := LabelColor("dog")
	if !sameColor(out.At(45, 40), want) {
		t.Errorf("top edge at (45,40): got %v, want %v", out.At(45, 40), want)
	}
	if !sameColor(out.At(69, 55), want) {
		t.Errorf("right edge at (69,55): got %v, want %v", out.At(69, 55), want)
	}
	if !sameColor(out.At(45, 55), color.White) {
		t.Errorf("box interior at (45,55) should be untouched, got %v", out.At(45, 55))
	}
	if !sameColor(src.At(45, 40), color.White) {
		t.Error("source image was modified")
	}
}

func TestDrawDetections_OutOfBoundsBox(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	det := detection.Detection{Label: "x", Box: detection.Box{X: 50, Y: 50, Width: 5, Height: 5}}

	out := DrawDetections(src, []detection.Detection{det})
	for i, p := range out.Pix {
		if p != 0 {
			t.Fatalf("pixel byte %d changed for an off-image box", i)
		}
	}
}

func TestAnnotatedPath(t *testing.T) {
	tests := map[string]string{
		"/a/b/cat.jpg":  "/a/b/cat.annotated.jpg",
		"photo.tar.png": "photo.tar.annotated.png",
		"noext":         "noext.annotated",
	}
	for in, want := range tests {
		if got := AnnotatedPath(in); got != want {
			t.Errorf("AnnotatedPath(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestFileSource_SaveAnnotated(t *testing.T) {
	imgPath := createTestImage(t, 60, 60, color.White)
	dets := []detection.Detection{{Label: "cup", Confidence: 0.7, Box: detection.Box{X: 5, Y: 25, Width: 20, Height: 20}}}

	src := NewFileSource()
	out, err := src.SaveAnnotated(imgPath, dets)
	if err != nil {
		t.Fatalf("SaveAnnotated failed: %v", err)
	}
	if out != AnnotatedPath(imgPath) {
		t.Errorf("output path: got %s, want %s", out, AnnotatedPath(imgPath))
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("annotated image not written: %v", err)
	}

	img, err := src.Load(out)
	if err != nil {
		t.Fatalf("failed to reload annotated image: %v", err)
	}
	if !sameColor(img.At(15, 25), LabelColor("cup")) {
		t.Errorf("box edge at (15,25): got %v, want %v", img.At(15, 25), LabelColor("cup"))
	}
}

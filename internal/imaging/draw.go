package imaging

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/imglocate/internal/detection"
)

const (
	boxThickness = 2
	labelPadding = 3
)

var labelText = color.RGBA{30, 30, 30, 255}

// LabelColor returns the box colour for a label. The same label always maps
// to the same colour.
func LabelColor(label string) color.Color {
	h := fnv.New32a()
	h.Write([]byte(label))
	hue := float64(h.Sum32() % 360)
	return colorful.Hsv(hue, 0.75, 0.95).Clamped()
}

// DrawDetections returns a copy of img with a rectangle and a label tag drawn
// for every detection. Boxes are clipped to the image.
func DrawDetections(img image.Image, dets []detection.Detection) *image.NRGBA {
	dst := imaging.Clone(img)
	bounds := dst.Bounds()
	face := basicfont.Face7x13

	for _, d := range dets {
		c := image.NewUniform(LabelColor(d.Label))
		r := d.Box.Rect().Intersect(bounds)
		if r.Empty() {
			continue
		}

		// Outline
		t := boxThickness
		draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t).Intersect(r), c, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y).Intersect(r), c, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y).Intersect(r), c, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y).Intersect(r), c, image.Point{}, draw.Src)

		// Label tag sits above the box, or just inside it at the top edge.
		textW := font.MeasureString(face, d.Label).Ceil()
		tagH := face.Height + 2*labelPadding
		top := r.Min.Y - tagH
		if top < bounds.Min.Y {
			top = r.Min.Y
		}
		tag := image.Rect(r.Min.X, top, r.Min.X+textW+2*labelPadding, top+tagH).Intersect(bounds)
		draw.Draw(dst, tag, c, image.Point{}, draw.Src)

		drawer := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(labelText),
			Face: face,
			Dot:  fixed.P(r.Min.X+labelPadding, top+labelPadding+face.Ascent),
		}
		drawer.DrawString(d.Label)
	}

	return dst
}

// AnnotatedPath returns where the rendered copy of an image is saved:
// "dir/name.jpg" becomes "dir/name.annotated.jpg".
func AnnotatedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".annotated" + ext
}

// SaveAnnotated draws dets onto the image at path and saves the result next
// to it (see AnnotatedPath). The output format follows the file extension.
func (s *FileSource) SaveAnnotated(path string, dets []detection.Detection) (string, error) {
	img, err := s.Load(path)
	if err != nil {
		return "", err
	}

	out := AnnotatedPath(path)
	if err := imaging.Save(DrawDetections(img, dets), out); err != nil {
		return "", fmt.Errorf("failed to save annotated image: %w", err)
	}
	return out, nil
}

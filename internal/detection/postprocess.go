package detection

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrInvalidDetectionInput is wrapped by every error Postprocess returns for
// malformed detector output.
var ErrInvalidDetectionInput = errors.New("invalid detection input")

func invalidInput(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidDetectionInput, format, args...)
}

// Postprocess turns raw candidates into final detections for an image of
// width × height pixels.
//
// # Algorithm
//
//  1. Class selection: the highest score wins, the lowest class index breaks
//     ties. Candidates whose best score is below p.ConfidenceThreshold are
//     dropped.
//  2. Transform: the normalized center box is scaled to pixels, rounded half
//     away from zero and clamped so that 0 ≤ x < width, 0 ≤ y < height,
//     x+Width ≤ width, y+Height ≤ height and Width, Height ≥ 1.
//  3. Per-class NMS on the pixel boxes (see NMS).
//
// The result is grouped by class, in the order each class first appears among
// the surviving candidates, with descending confidence inside a group. No
// candidates, or none above the threshold, yields an empty slice.
//
// # Errors
//
// Any of the following returns an error wrapping ErrInvalidDetectionInput:
//   - non-positive image dimensions or thresholds outside [0,1]
//   - a score vector whose length differs from len(p.Labels)
//   - a NaN or infinite score or box component
//   - a selected score greater than 1
func Postprocess(cands []Candidate, width, height int, p Params) ([]Detection, error) {
	if width <= 0 || height <= 0 {
		return nil, invalidInput("image size %dx%d", width, height)
	}
	if !inUnit(p.ConfidenceThreshold) || !inUnit(p.NMSThreshold) {
		return nil, invalidInput("thresholds confidence=%v nms=%v outside [0,1]",
			p.ConfidenceThreshold, p.NMSThreshold)
	}

	// Surviving candidates, bucketed per class in first-appearance order.
	var classOrder []int
	groups := make(map[int][]Detection)

	for i, c := range cands {
		if len(c.Scores) != len(p.Labels) {
			return nil, invalidInput("candidate %d: %d scores for %d labels", i, len(c.Scores), len(p.Labels))
		}
		if !finite(c.Box.CX, c.Box.CY, c.Box.W, c.Box.H) {
			return nil, invalidInput("candidate %d: non-finite box %+v", i, c.Box)
		}
		if !finite(c.Scores...) {
			return nil, invalidInput("candidate %d: non-finite score", i)
		}
		if len(c.Scores) == 0 {
			continue
		}

		class := argmax(c.Scores)
		conf := c.Scores[class]
		if conf > 1 {
			return nil, invalidInput("candidate %d: confidence %v above 1", i, conf)
		}
		if conf < p.ConfidenceThreshold {
			continue
		}

		if _, seen := groups[class]; !seen {
			classOrder = append(classOrder, class)
		}
		groups[class] = append(groups[class], Detection{
			Label:      p.Labels[class],
			Confidence: conf,
			Box:        ToPixelBox(c.Box, width, height),
		})
	}

	result := make([]Detection, 0, len(cands))
	for _, class := range classOrder {
		result = append(result, suppress(groups[class], p.NMSThreshold)...)
	}
	return result, nil
}

// ToPixelBox converts a network-normalized center box into a clamped
// top-left pixel box for an image of width × height pixels.
func ToPixelBox(b RawBox, width, height int) Box {
	w, h := float64(width), float64(height)

	// Clamped as floats so out-of-range finite inputs never overflow int.
	x := clamp(math.Round((b.CX-b.W/2)*w), 0, w-1)
	y := clamp(math.Round((b.CY-b.H/2)*h), 0, h-1)
	bw := clamp(math.Round(b.W*w), 1, w-x)
	bh := clamp(math.Round(b.H*h), 1, h-y)

	return Box{X: int(x), Y: int(y), Width: int(bw), Height: int(bh)}
}

// NMS applies greedy non-maximum suppression independently per label and
// returns the kept detections grouped by label (first-appearance order), each
// group in descending confidence.
//
// Running NMS on its own output returns the same detections.
func NMS(dets []Detection, threshold float64) []Detection {
	var order []string
	groups := make(map[string][]Detection)
	for _, d := range dets {
		if _, seen := groups[d.Label]; !seen {
			order = append(order, d.Label)
		}
		groups[d.Label] = append(groups[d.Label], d)
	}

	out := make([]Detection, 0, len(dets))
	for _, label := range order {
		out = append(out, suppress(groups[label], threshold)...)
	}
	return out
}

// suppress runs greedy NMS over a single class. Boxes whose IoU with an
// already kept box is at least threshold are marked and skipped; the working
// slice is never mutated by removal.
func suppress(group []Detection, threshold float64) []Detection {
	sorted := make([]Detection, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	suppressed := make([]bool, len(sorted))
	kept := make([]Detection, 0, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if !suppressed[j] && IoU(sorted[i].Box, sorted[j].Box) >= threshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

// IoU returns the intersection-over-union of two pixel boxes, or 0 when their
// union is empty.
func IoU(a, b Box) float64 {
	inter := a.Rect().Intersect(b.Rect())
	interArea := inter.Dx() * inter.Dy()
	union := a.Area() + b.Area() - interArea
	if union <= 0 {
		return 0
	}
	return float64(interArea) / float64(union)
}

func argmax(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

package annotation

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ironsheep/imglocate/internal/detection"
)

const (
	fieldSep  = "\t"
	numFields = 6
)

// Encode writes detections in the annotation format, one line each.
//
// A label containing a tab, carriage return or newline cannot be represented
// and is rejected before anything is written.
func Encode(w io.Writer, dets []detection.Detection) error {
	for i, d := range dets {
		if d.Label == "" || strings.ContainsAny(d.Label, "\t\r\n") {
			return errors.Errorf("detection %d: label %q cannot be encoded", i, d.Label)
		}
	}

	bw := bufio.NewWriter(w)
	for _, d := range dets {
		bw.WriteString(FormatLine(d))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// FormatLine renders a single detection without the trailing newline.
func FormatLine(d detection.Detection) string {
	return strings.Join([]string{
		d.Label,
		strconv.FormatFloat(d.Confidence, 'g', -1, 64),
		strconv.Itoa(d.Box.X),
		strconv.Itoa(d.Box.Y),
		strconv.Itoa(d.Box.Height),
		strconv.Itoa(d.Box.Width),
	}, fieldSep)
}

// Decode parses every line of r. The first bad line stops decoding with a
// *MalformedError carrying path and the line number.
func Decode(r io.Reader, path string) ([]detection.Detection, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	dets := make([]detection.Detection, 0)
	line := 0
	for scanner.Scan() {
		line++
		d, err := ParseLine(strings.TrimSuffix(scanner.Text(), "\r"))
		if err != nil {
			return nil, &MalformedError{Path: path, Line: line, Reason: err.Error()}
		}
		dets = append(dets, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read annotation %s", path)
	}
	return dets, nil
}

// ParseLine parses one annotation line (without newline).
func ParseLine(s string) (detection.Detection, error) {
	fields := strings.Split(s, fieldSep)
	if len(fields) != numFields {
		return detection.Detection{}, fmt.Errorf("expected %d fields, got %d", numFields, len(fields))
	}

	label := fields[0]
	if label == "" {
		return detection.Detection{}, fmt.Errorf("empty label")
	}

	conf, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return detection.Detection{}, fmt.Errorf("confidence %q: not a number", fields[1])
	}
	if math.IsNaN(conf) || conf < 0 || conf > 1 {
		return detection.Detection{}, fmt.Errorf("confidence %v outside [0,1]", conf)
	}

	names := [...]string{"x", "y", "height", "width"}
	var ints [4]int
	for i, name := range names {
		v, err := strconv.Atoi(fields[2+i])
		if err != nil {
			return detection.Detection{}, fmt.Errorf("%s %q: not an integer", name, fields[2+i])
		}
		ints[i] = v
	}
	if ints[0] < 0 || ints[1] < 0 {
		return detection.Detection{}, fmt.Errorf("negative origin %d,%d", ints[0], ints[1])
	}
	if ints[2] <= 0 || ints[3] <= 0 {
		return detection.Detection{}, fmt.Errorf("non-positive size %dx%d", ints[3], ints[2])
	}

	return detection.Detection{
		Label:      label,
		Confidence: conf,
		Box:        detection.Box{X: ints[0], Y: ints[1], Height: ints[2], Width: ints[3]},
	}, nil
}

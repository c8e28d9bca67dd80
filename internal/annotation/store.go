package annotation

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ironsheep/imglocate/internal/detection"
)

// Suffix is appended to an image path to name its annotation file.
const Suffix = ".txt"

// Set is the full collection of detections for one image.
type Set struct {
	// Image is the path of the annotated image.
	Image string `json:"image"`

	// Detections is ordered class-major, highest confidence first.
	Detections []detection.Detection `json:"detections"`
}

// PathFor returns the annotation file path for an image. The suffix is
// appended, not substituted for the image's extension.
func PathFor(image string) string {
	return image + Suffix
}

// Write persists dets as the annotation file of image and returns its path.
//
// The content is written to a temporary file in the same directory, synced
// and renamed into place, so on failure the previous annotation (if any) is
// left untouched and no partial file remains. Errors are *WriteError.
func Write(image string, dets []detection.Detection) (string, error) {
	path := PathFor(image)
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	fail := func(err error) (string, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}

	if err := Encode(tmp, dets); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}
	return path, nil
}

// Read parses the annotation file at path.
//
// A missing file returns an error matching both ErrMissingAnnotation and
// os.ErrNotExist; bad content returns a *MalformedError.
func Read(path string) ([]detection.Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(missing{err}, path)
		}
		return nil, errors.Wrapf(err, "open annotation")
	}
	defer f.Close()

	return Decode(f, path)
}

// ReadFor reads the annotation of image.
func ReadFor(image string) ([]detection.Detection, error) {
	return Read(PathFor(image))
}

// ReadSet reads the annotation of image as a Set.
func ReadSet(image string) (Set, error) {
	dets, err := ReadFor(image)
	if err != nil {
		return Set{}, err
	}
	return Set{Image: image, Detections: dets}, nil
}

// missing wraps a not-exist error so that it matches ErrMissingAnnotation as
// well as the original os error.
type missing struct{ err error }

func (m missing) Error() string        { return ErrMissingAnnotation.Error() }
func (m missing) Unwrap() error        { return m.err }
func (m missing) Is(target error) bool { return target == ErrMissingAnnotation }

// IsStale reports whether image needs (re-)detection.
//
// It returns true when force is set (without touching the filesystem), when
// the annotation file does not exist, or when the annotation's modification
// time is not strictly after the image's. The check reads filesystem metadata
// only and caches nothing.
//
// An error is returned when the image cannot be stat'd, or the annotation
// file exists but cannot be stat'd.
func IsStale(image string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	imgInfo, err := os.Stat(image)
	if err != nil {
		return true, errors.Wrap(err, "stat image")
	}

	annInfo, err := os.Stat(PathFor(image))
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return true, errors.Wrap(err, "stat annotation")
	}

	return !annInfo.ModTime().After(imgInfo.ModTime()), nil
}

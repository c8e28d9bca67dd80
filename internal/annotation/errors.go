package annotation

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedAnnotation is matched by every *MalformedError.
	ErrMalformedAnnotation = errors.New("malformed annotation")

	// ErrAnnotationWrite is matched by every *WriteError.
	ErrAnnotationWrite = errors.New("annotation write failure")

	// ErrMissingAnnotation is returned (wrapped) by Read when the annotation
	// file does not exist.
	ErrMissingAnnotation = errors.New("missing annotation")
)

// MalformedError reports an annotation line that does not follow the format.
type MalformedError struct {
	// Path is the annotation file, or empty when decoding a bare stream.
	Path string

	// Line is the 1-based line number.
	Line int

	// Reason describes what is wrong with the line.
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed annotation at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed annotation %s:%d: %s", e.Path, e.Line, e.Reason)
}

// Is reports whether target is ErrMalformedAnnotation.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedAnnotation
}

// WriteError reports an annotation file that could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write annotation %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrAnnotationWrite.
func (e *WriteError) Is(target error) bool {
	return target == ErrAnnotationWrite
}

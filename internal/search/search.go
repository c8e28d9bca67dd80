// Package search finds annotated images containing a given label.
package search

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/imglocate/internal/annotation"
)

// Searcher looks labels up in annotation files.
type Searcher struct {
	logger *zap.SugaredLogger
}

// New creates a Searcher. A nil logger discards output.
func New(logger *zap.SugaredLogger) *Searcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Searcher{logger: logger}
}

// Search returns, in input order, the images whose annotation contains a
// detection labelled exactly label (case-sensitive).
//
// Images without an annotation file are skipped. An image whose annotation
// cannot be read never matches, but the remaining images are still searched;
// every such failure is returned in the combined error alongside all matches.
func (s *Searcher) Search(label string, images []string) ([]string, error) {
	matches := make([]string, 0)
	var errs error
	for _, img := range images {
		s.logger.Infow("searching label", "label", label, "image", img)

		path := annotation.PathFor(img)
		dets, err := annotation.Read(path)
		if err != nil {
			if errors.Is(err, annotation.ErrMissingAnnotation) {
				s.logger.Debugw("no annotations, skipping", "image", img)
				continue
			}
			s.logger.Warnw("unreadable annotation", "image", img, "error", err)
			errs = multierr.Append(errs, err)
			continue
		}

		for _, d := range dets {
			if d.Label == label {
				matches = append(matches, img)
				break
			}
		}
	}
	return matches, errs
}

// Search is a convenience wrapper around a Searcher without logging.
func Search(label string, images []string) ([]string, error) {
	return New(nil).Search(label, images)
}

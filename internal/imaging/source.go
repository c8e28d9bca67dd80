package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
)

// FileSource decodes images from the filesystem.
//
// Unlike a cache, FileSource keeps nothing between calls: every Load reads
// and decodes the file again, so a batch never holds more than the image
// currently being processed.
type FileSource struct {
	// AutoOrient applies the EXIF orientation tag so that pixel coordinates
	// match what an image viewer shows.
	AutoOrient bool
}

// NewFileSource returns a FileSource with EXIF auto-orientation enabled.
func NewFileSource() *FileSource {
	return &FileSource{AutoOrient: true}
}

// Load opens and decodes the image at path.
//
// Supported formats are those registered with the image package plus the ones
// disintegration/imaging adds (PNG, JPEG, GIF, TIFF, BMP).
func (s *FileSource) Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(s.AutoOrient))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format implied by the file extension, or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo decodes the image at path and describes it.
func (s *FileSource) LoadImageInfo(path string) (*ImageInfo, error) {
	img, err := s.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = f.String()
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}

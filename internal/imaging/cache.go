package imaging

import (
	"image"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// DefaultCacheSize is the number of decoded images an ImageCache keeps when
// no size is given.
const DefaultCacheSize = 32

// ImageCache keeps decoded images in memory between calls, for long-running
// processes such as the MCP server that see the same paths repeatedly.
//
// An entry is only reused while the file's modification time and size are
// unchanged, so an image edited on disk is decoded again on its next Load.
// That keeps cached pixels in step with the staleness check of its
// annotation.
//
// The cache holds at most its configured number of images and drops the
// least recently used one to make room.
//
// ImageCache is safe for concurrent use and satisfies annotator.ImageSource.
type ImageCache struct {
	source  *FileSource
	entries *lru.Cache[string, cacheEntry]
}

type cacheEntry struct {
	img     image.Image
	modTime time.Time
	size    int64
}

// NewImageCache creates an empty cache of up to size images that decodes
// misses with source. A nil source uses NewFileSource(); a size of zero or
// less uses DefaultCacheSize.
func NewImageCache(source *FileSource, size int) *ImageCache {
	if source == nil {
		source = NewFileSource()
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, cacheEntry](size)
	return &ImageCache{source: source, entries: entries}
}

// Load returns the cached image for path, decoding it when absent or when
// the file changed since it was cached.
func (c *ImageCache) Load(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		c.entries.Remove(path)
		return nil, errors.Wrap(err, "stat image")
	}

	if e, ok := c.entries.Get(path); ok && e.modTime.Equal(stat.ModTime()) && e.size == stat.Size() {
		return e.img, nil
	}

	img, err := c.source.Load(path)
	if err != nil {
		c.entries.Remove(path)
		return nil, err
	}
	c.entries.Add(path, cacheEntry{img: img, modTime: stat.ModTime(), size: stat.Size()})

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	return c.entries.Len()
}

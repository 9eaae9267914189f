package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

// ImageCache keeps decoded images keyed by path so repeated tool calls on the
// same photo (analyze, then annotate, then crop a detection) decode it once.
//
// ImageCache is safe for concurrent use. When a limit is set, the oldest
// entry is evicted once the cache is full.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	order  []string
	limit  int
}

// NewImageCache returns an empty cache holding at most limit images. A limit
// of zero or less means unbounded.
func NewImageCache(limit int) *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
		limit:  limit,
	}
}

// Load returns the cached image for path, decoding it from disk on a miss.
// PNG, JPEG and GIF are supported. Different spellings of the same path are
// cached separately.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.images[path]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err = image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	if _, exists := c.images[path]; !exists {
		c.images[path] = img
		c.order = append(c.order, path)
		c.evictOverflow()
	}
	c.mu.Unlock()

	return img, nil
}

// evictOverflow drops the oldest entries beyond the limit. Callers hold mu.
func (c *ImageCache) evictOverflow() {
	if c.limit <= 0 {
		return
	}
	for len(c.order) > c.limit {
		delete(c.images, c.order[0])
		c.order = c.order[1:]
	}
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear empties the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.order = nil
	c.mu.Unlock()
}

// Evict removes path from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.images[path]; !ok {
		return
	}
	delete(c.images, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// FrameFor returns the coordinate frame detections on img are expressed in.
func FrameFor(img image.Image) spatial.Frame {
	b := img.Bounds()
	return spatial.Frame{Width: b.Dx(), Height: b.Dy()}
}

// ImageInfo describes an image file.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format comes from the file extension: "png", "jpeg", "gif" or "unknown".
	Format string `json:"format"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads path through cache and reports its size and format.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	frame := FrameFor(img)
	return &ImageInfo{
		Width:         frame.Width,
		Height:        frame.Height,
		Format:        formatFromExt(path),
		FileSizeBytes: stat.Size(),
	}, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	default:
		return "unknown"
	}
}

// GetDimensions loads path through cache and returns its frame.
func GetDimensions(cache *ImageCache, path string) (*spatial.Frame, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	frame := FrameFor(img)
	return &frame, nil
}

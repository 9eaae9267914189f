package imaging

import (
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache(0)
	path := writeTestImage(t, "red.png", createInMemoryImage(100, 80, color.RGBA{255, 0, 0, 255}))

	img1, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, img1.Bounds().Dx())
	assert.Equal(t, 80, img1.Bounds().Dy())

	img2, err := cache.Load(path)
	require.NoError(t, err)
	assert.Same(t, img1, img2, "second Load should hit the cache")
	assert.Equal(t, 1, cache.Len())
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache(0)

	_, err := cache.Load("/nonexistent/path/to/image.png")
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = cache.Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode image")
	assert.Zero(t, cache.Len())
}

func TestImageCache_Limit(t *testing.T) {
	cache := NewImageCache(2)
	img := createInMemoryImage(4, 4, color.White)
	a := writeTestImage(t, "a.png", img)
	b := writeTestImage(t, "b.png", img)
	c := writeTestImage(t, "c.png", img)

	for _, p := range []string{a, b, c} {
		_, err := cache.Load(p)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, cache.Len())
	cache.mu.RLock()
	_, hasA := cache.images[a]
	_, hasC := cache.images[c]
	cache.mu.RUnlock()
	assert.False(t, hasA, "oldest entry should be evicted")
	assert.True(t, hasC)
}

func TestImageCache_EvictAndClear(t *testing.T) {
	cache := NewImageCache(0)
	img := createInMemoryImage(4, 4, color.White)
	a := writeTestImage(t, "a.png", img)
	b := writeTestImage(t, "b.png", img)

	_, err := cache.Load(a)
	require.NoError(t, err)
	_, err = cache.Load(b)
	require.NoError(t, err)

	cache.Evict(a)
	cache.Evict("/never/loaded.png")
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, []string{b}, cache.order)

	cache.Clear()
	assert.Zero(t, cache.Len())
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache(1)
	path := writeTestImage(t, "gray.png", createInMemoryImage(50, 50, color.RGBA{128, 128, 128, 255}))

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache(0)
	path := writeTestImage(t, "photo.png", createInMemoryImage(200, 150, color.RGBA{255, 128, 64, 255}))

	info, err := LoadImageInfo(cache, path)
	require.NoError(t, err)
	assert.Equal(t, 200, info.Width)
	assert.Equal(t, 150, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Positive(t, info.FileSizeBytes)

	_, err = LoadImageInfo(cache, "/nonexistent.png")
	assert.Error(t, err)
}

func TestFormatFromExt(t *testing.T) {
	tests := map[string]string{
		"a.png":  "png",
		"a.JPG":  "jpeg",
		"a.jpeg": "jpeg",
		"a.gif":  "gif",
		"a.xyz":  "unknown",
		"noext":  "unknown",
	}
	for path, want := range tests {
		assert.Equal(t, want, formatFromExt(path), path)
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewImageCache(0)
	path := writeTestImage(t, "dims.png", createInMemoryImage(320, 240, color.Black))

	frame, err := GetDimensions(cache, path)
	require.NoError(t, err)
	assert.Equal(t, &spatial.Frame{Width: 320, Height: 240}, frame)

	_, err = GetDimensions(cache, "/nonexistent.png")
	assert.Error(t, err)
}

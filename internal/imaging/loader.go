package imaging

import (
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/pkg/errors"

	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

// ImageCache provides thread-safe caching of decoded source images and
// instance masks, keyed by file path.
//
// Rendering tools are usually called many times against the same frame (for
// example once per visualization of a single evaluation image), so the
// decoded image and its mask files are kept until evicted.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/frame.png")
//	if err != nil {
//	    return err
//	}
//	mask, err := cache.LoadMask("/path/to/frame_mask_0.png")
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	masks  map[string]*instances.Mask
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
		masks:  make(map[string]*instances.Mask),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, and GIF. The image is cached under the
// exact path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imgio.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load image %s", path)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// LoadMask loads a mask image and converts it to a binary instance mask.
// Any non-black pixel is part of the instance.
func (c *ImageCache) LoadMask(path string) (*instances.Mask, error) {
	c.mu.RLock()
	if m, ok := c.masks[path]; ok {
		c.mu.RUnlock()
		return m, nil
	}
	c.mu.RUnlock()

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	m := instances.MaskFromImage(img)

	c.mu.Lock()
	c.masks[path] = m
	c.mu.Unlock()

	return m, nil
}

// Clear removes all images and masks from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.masks = make(map[string]*instances.Mask)
	c.mu.Unlock()
}

// Evict removes a specific path from the cache. Missing paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	delete(c.masks, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif", or "unknown", from the file extension.
	Format string `json:"format"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and reports its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}

	format := "unknown"
	switch filepath.Ext(path) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

package imaging

import (
	"fmt"
	"image"
	"sync"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of decoded channel images so that a
// field whose mask is used by several operations is only read from disk once.
//
// The cache stores decoded image.Image values keyed by file path. Decoding is
// done by disintegration/imaging, which registers TIFF and BMP in addition to
// the standard PNG, JPEG and GIF codecs. Multi-page TIFF stacks are read as
// their first page.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until removed via Evict(). Batch runs give
// each field its own cache instead, so memory is released per field.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// The image is cached using the exact path string provided; different paths
// to the same file are separate entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Evict removes the given paths from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(paths ...string) {
	c.mu.Lock()
	for _, p := range paths {
		delete(c.images, p)
	}
	c.mu.Unlock()
}

// LoadLabelMask reads a persisted segmentation result (a 16-bit or 8-bit
// label image where 0 is background) into a LabelMask.
func LoadLabelMask(cache *ImageCache, path string) (*LabelMask, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return LabelMaskFromImage(img), nil
}

// LoadIntensityImage reads a single-channel fluorescence image.
func LoadIntensityImage(cache *ImageCache, path string) (*IntensityImage, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return IntensityFromImage(img), nil
}

// LoadBinaryMask reads a logical mask image and converts it to a LabelMask.
//
// Pixels whose 8-bit rank is at least level are foreground. Foreground
// pixels are then grouped into 8-connected components, each receiving its
// own label in raster-scan order. This is the ingest path for masks saved
// as 0/255 or 0/1 images, so downstream code only ever sees LabelMasks.
func LoadBinaryMask(cache *ImageCache, path string, level uint8) (*LabelMask, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return BinaryMaskFromImage(img, level), nil
}

// BinaryMaskFromImage thresholds img at level and labels the foreground
// components. See LoadBinaryMask.
func BinaryMaskFromImage(img image.Image, level uint8) *LabelMask {
	gray := segment.Threshold(img, level)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	foreground := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			foreground[y*w+x] = gray.Pix[y*gray.Stride+x] > 0
		}
	}
	return LabelComponents(foreground, w, h)
}

// SaveLabelMask writes a mask as a 16-bit grayscale image. The format is
// chosen from the file extension (.png or .tif recommended; lossy formats
// will corrupt labels).
func SaveLabelMask(path string, m *LabelMask) error {
	img, err := m.ToGray16()
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save label mask: %w", err)
	}
	return nil
}

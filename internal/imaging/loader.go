package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrDecode is returned (wrapped) when an image file cannot be opened or
// decoded. Callers treat it as "no result" rather than a fatal condition.
var ErrDecode = errors.New("image could not be decoded")

// imageExtensions lists the file extensions picked up when scanning folders.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsImageFile reports whether a file name has one of the scanned image
// extensions (case-insensitive).
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Decode opens and decodes an image file, applying its EXIF orientation.
//
// Every failure wraps ErrDecode so callers can branch with errors.Is.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open image: %w", ErrDecode, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", ErrDecode, filepath.Base(path), err)
	}
	return img, nil
}

// Load decodes an image file into a 3-channel raster.
func Load(path string) (*Raster, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// ImageCache provides thread-safe caching of loaded rasters to avoid redundant
// disk reads.
//
// The cache stores decoded rasters keyed by their file path. Cached rasters
// must not be modified; pipeline stages always copy before writing.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*Raster
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*Raster),
	}
}

// Load retrieves a raster from the cache or decodes it from disk if not
// cached. The path string is the cache key as given.
func (c *ImageCache) Load(path string) (*Raster, error) {
	c.mu.RLock()
	if r, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	r, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = r
	c.mu.Unlock()

	return r, nil
}

// Clear removes all rasters from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Raster)
	c.mu.Unlock()
}

// Evict removes a specific raster from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached rasters.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Subdirectories returns the names of the immediate subdirectories of dir,
// sorted lexicographically.
func Subdirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// imageFiles returns the full paths of the image files directly inside dir.
func imageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && IsImageFile(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

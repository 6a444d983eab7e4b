package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Preview bounds used by the tool server, matching the on-screen preview size.
const (
	PreviewWidth  = 300
	PreviewHeight = 300
)

// PreviewResult contains an encoded, downscaled copy of a raster.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Preview fits the raster inside maxWidth×maxHeight, keeping its aspect ratio,
// and returns it as a base64 PNG. Rasters already inside the box are not
// enlarged. Alpha is preserved for 4-channel rasters.
func Preview(r *Raster, maxWidth, maxHeight int) (*PreviewResult, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid preview size %dx%d", maxWidth, maxHeight)
	}

	img := imaging.Fit(r.Img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SavePNG writes the raster to path as a PNG, creating the parent directory.
// 3-channel rasters are written opaque.
func SavePNG(r *Raster, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := imaging.Encode(f, r.Img, imaging.PNG); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// BoundingRect returns the smallest rectangle containing every non-zero pixel
// of mask. The second result is false when the mask is empty.
//
// The rectangle uses the usual half-open convention: Min is inclusive and Max
// is exclusive.
func BoundingRect(mask *image.Gray) (image.Rectangle, bool) {
	b := mask.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := mask.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.Pix[off+x-b.Min.X] == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}

	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Crop extracts a rectangular region from a raster, keeping its channel count.
func Crop(r *Raster, rect image.Rectangle) (*Raster, error) {
	bounds := r.Img.Bounds()

	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if rect.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return &Raster{Img: imaging.Crop(r.Img, rect), Channels: r.Channels}, nil
}

// CropToMask crops a raster to the bounding box of its own foreground.
//
// The foreground is the alpha plane for 4-channel rasters and the non-zero
// luminance pixels otherwise. When there is no foreground the raster is
// returned unchanged and the second result is false.
func CropToMask(r *Raster) (*Raster, bool) {
	rect, ok := BoundingRect(Foreground(r))
	if !ok {
		return r, false
	}

	cropped, err := Crop(r, rect)
	if err != nil {
		return r, false
	}
	return cropped, true
}

package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Raster is an 8-bit image holding either three color channels or three
// color channels plus alpha.
//
// Pixels are stored non-premultiplied in an *image.NRGBA anchored at (0,0).
// A 3-channel raster keeps every alpha byte at 255 so that it encodes as an
// opaque image; only 4-channel rasters carry a meaningful alpha plane.
//
// Rasters are treated as immutable values: every operation in this package
// returns a new raster rather than modifying its receiver.
type Raster struct {
	// Img holds the pixel data. Bounds always start at (0,0).
	Img *image.NRGBA

	// Channels is 3 (color) or 4 (color + alpha).
	Channels int
}

// FromImage converts any decoded image into a 3-channel raster.
//
// Transparency in the source is discarded: the color values are kept and the
// alpha is forced opaque, the same way a color-only decode would treat an
// RGBA file.
func FromImage(img image.Image) *Raster {
	n := imaging.Clone(img)
	for i := 3; i < len(n.Pix); i += 4 {
		n.Pix[i] = 0xff
	}
	return &Raster{Img: n, Channels: 3}
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int {
	return r.Img.Bounds().Dx()
}

// Height returns the raster height in pixels.
func (r *Raster) Height() int {
	return r.Img.Bounds().Dy()
}

// HasAlpha reports whether the raster carries an alpha channel.
func (r *Raster) HasAlpha() bool {
	return r.Channels == 4
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	return &Raster{Img: imaging.Clone(r.Img), Channels: r.Channels}
}

// Gray returns the luminance plane (0.299R + 0.587G + 0.114B). Alpha is
// ignored.
func (r *Raster) Gray() *image.Gray {
	src := r.Img
	if r.HasAlpha() {
		src = r.opaqueCopy()
	}
	g := imaging.Grayscale(src)
	out := image.NewGray(g.Bounds())
	for i, j := 0, 0; i < len(g.Pix); i, j = i+4, j+1 {
		out.Pix[j] = g.Pix[i]
	}
	return out
}

// Alpha returns the alpha plane. For 3-channel rasters it is fully opaque.
func (r *Raster) Alpha() *image.Gray {
	out := image.NewGray(r.Img.Bounds())
	for i, j := 3, 0; i < len(r.Img.Pix); i, j = i+4, j+1 {
		out.Pix[j] = r.Img.Pix[i]
	}
	return out
}

// ApplyMask returns a copy of the raster in which every pixel whose mask value
// is zero has been cleared. Color channels are zeroed; the alpha channel is
// zeroed too on 4-channel rasters and left opaque on 3-channel rasters.
func (r *Raster) ApplyMask(mask *image.Gray) (*Raster, error) {
	if err := sameSize(r, mask); err != nil {
		return nil, err
	}

	out := r.Clone()
	for j, m := range mask.Pix {
		if m != 0 {
			continue
		}
		i := j * 4
		out.Img.Pix[i] = 0
		out.Img.Pix[i+1] = 0
		out.Img.Pix[i+2] = 0
		if out.HasAlpha() {
			out.Img.Pix[i+3] = 0
		}
	}
	return out, nil
}

// WithAlpha returns a 4-channel raster whose color comes from r and whose
// alpha plane is the given mask.
func (r *Raster) WithAlpha(mask *image.Gray) (*Raster, error) {
	if err := sameSize(r, mask); err != nil {
		return nil, err
	}

	out := r.Clone()
	out.Channels = 4
	for j, m := range mask.Pix {
		out.Img.Pix[j*4+3] = m
	}
	return out, nil
}

// At returns the color at (x, y) as an NRGBA value.
func (r *Raster) At(x, y int) color.NRGBA {
	return r.Img.NRGBAAt(x, y)
}

func (r *Raster) opaqueCopy() *image.NRGBA {
	n := imaging.Clone(r.Img)
	for i := 3; i < len(n.Pix); i += 4 {
		n.Pix[i] = 0xff
	}
	return n
}

func sameSize(r *Raster, mask *image.Gray) error {
	if mask == nil {
		return fmt.Errorf("mask is nil")
	}
	mb := mask.Bounds()
	if mb.Dx() != r.Width() || mb.Dy() != r.Height() {
		return fmt.Errorf("mask size %dx%d does not match image size %dx%d",
			mb.Dx(), mb.Dy(), r.Width(), r.Height())
	}
	if mb.Min != (image.Point{}) {
		return fmt.Errorf("mask bounds must start at (0,0), got %v", mb.Min)
	}
	return nil
}

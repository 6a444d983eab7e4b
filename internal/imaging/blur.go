package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// GaussianBlur smooths a raster with a ksize×ksize Gaussian window.
//
// ksize must be odd; even values are rounded up. A ksize of 1 or less returns
// an unmodified copy. The channel count is preserved.
func GaussianBlur(r *Raster, ksize int) *Raster {
	radius := kernelRadius(ksize)
	if radius == 0 {
		return r.Clone()
	}

	out := &Raster{Img: imaging.Clone(blur.Gaussian(r.Img, radius)), Channels: r.Channels}
	if !out.HasAlpha() {
		for i := 3; i < len(out.Img.Pix); i += 4 {
			out.Img.Pix[i] = 0xff
		}
	}
	return out
}

// GaussianBlurGray smooths a single-channel image with a ksize×ksize window.
func GaussianBlurGray(g *image.Gray, ksize int) *image.Gray {
	radius := kernelRadius(ksize)
	out := cloneGray(g)
	if radius == 0 {
		return out
	}

	blurred := blur.Gaussian(out, radius)
	for i, j := 0, 0; j < len(out.Pix); i, j = i+4, j+1 {
		out.Pix[j] = blurred.Pix[i]
	}
	return out
}

// kernelRadius converts a window size into the blur radius (half-width).
func kernelRadius(ksize int) float64 {
	if ksize <= 1 {
		return 0
	}
	if ksize%2 == 0 {
		ksize++
	}
	return float64(ksize-1) / 2
}

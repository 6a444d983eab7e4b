package imaging

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV is a color in the 8-bit hue/saturation/value convention used by the
// masking stages:
//   - H: hue in half-degrees, 0-179 (0=red, 60=green, 120=blue)
//   - S: saturation, 0-255 (0=gray, 255=vivid)
//   - V: value, 0-255 (0=black, 255=brightest)
type HSV struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// HSVRange is an inclusive per-component range.
type HSVRange struct {
	Lower HSV `json:"lower"`
	Upper HSV `json:"upper"`
}

// VegetationRange is the green-to-cyan band used to isolate leaves.
var VegetationRange = HSVRange{
	Lower: HSV{H: 30, S: 30, V: 30},
	Upper: HSV{H: 90, S: 255, V: 255},
}

// Contains reports whether c lies inside the range on all three components.
func (r HSVRange) Contains(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// ToHSV converts 8-bit RGB components to the 8-bit HSV convention.
func ToHSV(r, g, b uint8) HSV {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	h, s, v := c.Hsv()

	hue := math.Round(h / 2)
	if hue >= 180 {
		hue -= 180
	}
	return HSV{
		H: uint8(hue),
		S: uint8(math.Round(s * 255)),
		V: uint8(math.Round(v * 255)),
	}
}

// HSVMask returns a binary mask that is 255 wherever the pixel's HSV value
// falls inside rng and 0 elsewhere. Alpha is ignored.
func HSVMask(r *Raster, rng HSVRange) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, r.Width(), r.Height()))
	pix := r.Img.Pix
	for i, j := 0, 0; j < len(out.Pix); i, j = i+4, j+1 {
		if rng.Contains(ToHSV(pix[i], pix[i+1], pix[i+2])) {
			out.Pix[j] = 255
		}
	}
	return out
}

package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/histogram"
)

// float32 machine epsilon; classes with less probability mass than this are
// skipped when searching for the Otsu split.
const otsuEpsilon = 1.1920929e-07

// OtsuThreshold returns the gray level that maximizes the between-class
// variance of the image histogram.
//
// Pixels at or below the returned level form one class and pixels above it
// the other. Ties keep the lowest level. A uniform image returns 0.
func OtsuThreshold(g *image.Gray) uint8 {
	bins := histogram.NewRGBAHistogram(g).R.Bins
	total := 0
	for _, n := range bins {
		total += n
	}
	if total == 0 {
		return 0
	}
	scale := 1.0 / float64(total)

	mu := 0.0
	for i, n := range bins {
		mu += float64(i) * float64(n)
	}
	mu *= scale

	var q1, mu1, maxSigma float64
	level := 0
	for i, n := range bins {
		p := float64(n) * scale
		mu1 *= q1
		q1 += p
		q2 := 1 - q1

		if math.Min(q1, q2) < otsuEpsilon || math.Max(q1, q2) > 1-otsuEpsilon {
			continue
		}

		mu1 = (mu1 + float64(i)*p) / q1
		mu2 := (mu - q1*mu1) / q2
		sigma := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if sigma > maxSigma {
			maxSigma = sigma
			level = i
		}
	}
	return uint8(level)
}

// Threshold binarizes g at level. Pixels strictly above level become 255 and
// the rest 0; invert swaps the two outputs.
func Threshold(g *image.Gray, level uint8, invert bool) *image.Gray {
	src := cloneGray(g)
	var above, below uint8 = 255, 0
	if invert {
		above, below = 0, 255
	}
	for i, v := range src.Pix {
		if v > level {
			src.Pix[i] = above
		} else {
			src.Pix[i] = below
		}
	}
	return src
}

// CountNonZero returns the number of non-zero pixels in g.
func CountNonZero(g *image.Gray) int {
	b := g.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[g.PixOffset(b.Min.X, y):g.PixOffset(b.Max.X-1, y)+1]
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

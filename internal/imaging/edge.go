package imaging

import (
	"image"
	"math"
)

// Canny performs Canny edge detection on a grayscale image.
//
// The result is a binary image where 255 marks edge pixels and 0 marks
// everything else. The input is not smoothed here; callers blur first when
// the source is noisy.
//
// Parameters:
//   - gray: Source luminance plane.
//   - thresholdLow: Gradient magnitude below which a pixel is never an edge.
//     Typical value: 50.
//   - thresholdHigh: Gradient magnitude above which a pixel is always an
//     edge. Typical value: 150.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators with replicated borders,
//     magnitude = |Gx| + |Gy|
//
//  2. Non-maximum suppression: keep a pixel only if its magnitude is a local
//     maximum along the quantized gradient direction (0°, 45°, 90°, 135°)
//
//  3. Hysteresis thresholding:
//     - Pixels above thresholdHigh are strong edges (always kept)
//     - Pixels above thresholdLow are weak edges, kept only when connected
//     (8-neighborhood, transitively) to a strong edge
//     - Everything else is discarded
//
// Magnitudes are on the raw 0-255 intensity scale, so thresholds are
// comparable across images.
func Canny(gray *image.Gray, thresholdLow, thresholdHigh float64) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return out
	}
	if thresholdLow > thresholdHigh {
		thresholdLow, thresholdHigh = thresholdHigh, thresholdLow
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[gray.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)])
	}

	gradX := make([]float64, width*height)
	gradY := make([]float64, width*height)
	magnitude := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			i := y*width + x
			gradX[i] = gx
			gradY[i] = gy
			magnitude[i] = math.Abs(gx) + math.Abs(gy)
		}
	}

	// Out-of-range neighbors count as zero magnitude.
	mag := func(x, y int) float64 {
		if x < 0 || x >= width || y < 0 || y >= height {
			return 0
		}
		return magnitude[y*width+x]
	}

	const (
		none = iota
		weak
		strong
	)
	class := make([]uint8, width*height)
	stack := make([]int, 0, 64)

	tan22 := math.Tan(math.Pi / 8)
	tan67 := math.Tan(3 * math.Pi / 8)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := magnitude[i]
			if m <= thresholdLow {
				continue
			}

			ax := math.Abs(gradX[i])
			ay := math.Abs(gradY[i])

			var n1, n2 float64
			switch {
			case ay <= ax*tan22:
				// Horizontal gradient: compare left and right.
				n1, n2 = mag(x-1, y), mag(x+1, y)
			case ay >= ax*tan67:
				// Vertical gradient: compare above and below.
				n1, n2 = mag(x, y-1), mag(x, y+1)
			case (gradX[i] > 0) == (gradY[i] > 0):
				n1, n2 = mag(x-1, y-1), mag(x+1, y+1)
			default:
				n1, n2 = mag(x+1, y-1), mag(x-1, y+1)
			}

			if m > n1 && m >= n2 {
				if m > thresholdHigh {
					class[i] = strong
					stack = append(stack, i)
				} else {
					class[i] = weak
				}
			}
		}
	}

	// Grow strong edges through connected weak pixels.
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[i] = 255

		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				j := ny*width + nx
				if class[j] == weak {
					class[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

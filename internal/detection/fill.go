package detection

import (
	"image"
	"math"
	"sort"
)

// FillContour rasterizes a contour as a solid region on a new width×height
// mask. Pixels inside the polygon and on its outline become 255; everything
// else is 0.
//
// The polygon runs through pixel centers. Interior rows are filled with the
// even-odd rule, then every edge is drawn so that one pixel thick parts of
// the outline are kept. Points outside the mask are clipped.
func FillContour(width, height int, points []Point) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, width, height))
	n := len(points)
	if n == 0 || width <= 0 || height <= 0 {
		return out
	}

	set := func(x, y int) {
		if x >= 0 && x < width && y >= 0 && y < height {
			out.Pix[y*out.Stride+x] = 255
		}
	}

	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	minY = max(minY, 0)
	maxY = min(maxY, height-1)

	xs := make([]float64, 0, 16)
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		for i, a := range points {
			b := points[(i+1)%n]
			if a.Y == b.Y {
				continue
			}
			// Half-open in y so a vertex shared by two edges counts once.
			if (a.Y <= y && y < b.Y) || (b.Y <= y && y < a.Y) {
				t := float64(y-a.Y) / float64(b.Y-a.Y)
				xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
			}
		}
		sort.Float64s(xs)
		for k := 0; k+1 < len(xs); k += 2 {
			x0 := int(math.Ceil(xs[k]))
			x1 := int(math.Floor(xs[k+1]))
			for x := x0; x <= x1; x++ {
				set(x, y)
			}
		}
	}

	for i, a := range points {
		drawLine(a, points[(i+1)%n], set)
	}
	return out
}

// drawLine visits every pixel of the Bresenham line from a to b inclusive.
func drawLine(a, b Point, set func(x, y int)) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	err := dx + dy
	x, y := a.X, a.Y
	for {
		set(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package detection

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// Contour is the traced outer boundary of one connected foreground region.
type Contour struct {
	// Points are the boundary pixels in tracing order. The sequence is
	// closed implicitly: the last point connects back to the first.
	Points []Point `json:"points"`

	// Area is the polygon area enclosed by Points (shoelace formula), in
	// square pixels. Regions one pixel thick have zero area.
	Area float64 `json:"area"`
}

// Bounds returns the bounding box of the contour points.
func (c Contour) Bounds() Bounds {
	if len(c.Points) == 0 {
		return Bounds{}
	}
	b := Bounds{X1: c.Points[0].X, Y1: c.Points[0].Y, X2: c.Points[0].X, Y2: c.Points[0].Y}
	for _, p := range c.Points[1:] {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X)
		b.Y2 = max(b.Y2, p.Y)
	}
	b.X2++
	b.Y2++
	return b
}

// directions lists the 8 neighbor offsets counterclockwise (as seen on
// screen, with Y pointing down) starting from east.
var directions = [8]image.Point{
	{1, 0},   // 0: E
	{1, -1},  // 1: NE
	{0, -1},  // 2: N
	{-1, -1}, // 3: NW
	{-1, 0},  // 4: W
	{-1, 1},  // 5: SW
	{0, 1},   // 6: S
	{1, 1},   // 7: SE
}

// FindExternalContours traces the outer border of every connected foreground
// region of a binary mask that is not nested inside a hole of another region.
//
// Parameters:
//   - mask: Binary image. Any non-zero pixel is foreground.
//
// Returns:
//   - []Contour: One contour per external region, in the raster order (top to
//     bottom, left to right) of each region's first pixel. Empty when the mask
//     has no foreground.
//
// # Connectivity
//
// Foreground is 8-connected: diagonal neighbors belong to the same region.
// Background is 4-connected, so a region whose diagonal pixels close a ring
// encloses a hole.
//
// # Algorithm
//
//  1. Padding: Work on a copy framed by one background pixel so border
//     following never leaves the grid
//  2. Outside Region: Flood the background 4-connected from the frame; any
//     background not reached lies in a hole
//  3. Region Labeling: Scan in raster order. The first pixel of each new
//     8-connected region starts a border when its west neighbor is outside
//     background
//  4. Border Following: Walk the outer border from that pixel, searching the
//     neighborhood counterclockwise from the previous border pixel, until the
//     first border step repeats (Suzuki and Abe's outer border following)
//
// Traced points are emitted without any simplification; see Simplify.
func FindExternalContours(mask *image.Gray) []Contour {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	pw, ph := width+2, height+2
	fg := make([]bool, pw*ph)
	for y := 0; y < height; y++ {
		row := mask.Pix[mask.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		for x := 0; x < width; x++ {
			if row[x] != 0 {
				fg[(y+1)*pw+x+1] = true
			}
		}
	}

	outside := floodOutside(fg, pw, ph)

	labeled := make([]bool, pw*ph)
	contours := make([]Contour, 0)
	for y := 1; y <= height; y++ {
		for x := 1; x <= width; x++ {
			i := y*pw + x
			if !fg[i] || labeled[i] {
				continue
			}
			labelRegion(fg, labeled, pw, i)
			if !outside[i-1] {
				continue
			}

			points := traceBorder(fg, pw, image.Point{X: x, Y: y})
			for k := range points {
				points[k].X--
				points[k].Y--
			}
			contours = append(contours, Contour{Points: points, Area: ContourArea(points)})
		}
	}

	return contours
}

// floodOutside marks the background reachable 4-connected from the frame of
// a padded grid.
func floodOutside(fg []bool, pw, ph int) []bool {
	outside := make([]bool, pw*ph)
	outside[0] = true
	queue := []int{0}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%pw, i/pw
		for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || nx >= pw || ny < 0 || ny >= ph {
				continue
			}
			j := ny*pw + nx
			if fg[j] || outside[j] {
				continue
			}
			outside[j] = true
			queue = append(queue, j)
		}
	}
	return outside
}

// labelRegion marks every foreground pixel 8-connected to start. The padded
// frame is background, so neighbors never leave the grid.
func labelRegion(fg, labeled []bool, pw, start int) {
	labeled[start] = true
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range directions {
			j := i + d.Y*pw + d.X
			if fg[j] && !labeled[j] {
				labeled[j] = true
				stack = append(stack, j)
			}
		}
	}
}

// traceBorder follows the outer border starting at p0, whose west neighbor
// is background. Coordinates are in the padded grid.
func traceBorder(fg []bool, pw int, p0 image.Point) []Point {
	at := func(p image.Point) bool {
		return fg[p.Y*pw+p.X]
	}

	// Clockwise from west for the first neighbor.
	var p1 image.Point
	found := false
	for k := 0; k < 8; k++ {
		d := (4 - k + 8) % 8
		if q := p0.Add(directions[d]); at(q) {
			p1, found = q, true
			break
		}
	}
	if !found {
		return []Point{{X: p0.X, Y: p0.Y}}
	}

	points := []Point{{X: p0.X, Y: p0.Y}}
	prev, cur := p1, p0
	for {
		start := direction(cur, prev) + 1
		var next image.Point
		for k := 0; k < 8; k++ {
			if q := cur.Add(directions[(start+k)%8]); at(q) {
				next = q
				break
			}
		}

		if next == p0 && cur == p1 {
			break
		}
		prev, cur = cur, next
		points = append(points, Point{X: cur.X, Y: cur.Y})
	}
	return points
}

// direction returns the index in directions of the step from a to its
// neighbor b.
func direction(a, b image.Point) int {
	d := b.Sub(a)
	for i, dir := range directions {
		if dir == d {
			return i
		}
	}
	return 0
}

// ContourArea returns the absolute area of the closed polygon through points.
func ContourArea(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}
	sum := 0
	for i, p := range points {
		q := points[(i+1)%len(points)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// Largest returns the contour with the greatest area. When several share the
// maximum the first one wins. It reports false for an empty slice.
func Largest(contours []Contour) (Contour, bool) {
	if len(contours) == 0 {
		return Contour{}, false
	}
	best := 0
	for i := 1; i < len(contours); i++ {
		if contours[i].Area > contours[best].Area {
			best = i
		}
	}
	return contours[best], true
}

// Simplify compresses horizontal, vertical and diagonal runs of a traced
// contour down to their end points. The first point is always kept.
func Simplify(points []Point) []Point {
	n := len(points)
	if n <= 2 {
		out := make([]Point, n)
		copy(out, points)
		return out
	}

	out := []Point{points[0]}
	for i := 1; i < n; i++ {
		prev, cur, next := points[i-1], points[i], points[(i+1)%n]
		in := Point{X: cur.X - prev.X, Y: cur.Y - prev.Y}
		outDir := Point{X: next.X - cur.X, Y: next.Y - cur.Y}
		if in != outDir {
			out = append(out, cur)
		}
	}
	return out
}

package detection

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// maskFromRows builds a mask from rows of '#' (foreground) and '.'.
func maskFromRows(rows ...string) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				m.Pix[y*m.Stride+x] = 255
			}
		}
	}
	return m
}

// createRectMask creates a mask with a single filled rectangle.
func createRectMask(width, height int, rect image.Rectangle) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, width, height))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			m.Pix[y*m.Stride+x] = 255
		}
	}
	return m
}

func countSet(m *image.Gray) int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

func TestFindExternalContours_Square(t *testing.T) {
	contours := FindExternalContours(createRectMask(10, 10, image.Rect(2, 2, 6, 6)))
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}

	want := []Point{
		{2, 2}, {2, 3}, {2, 4}, {2, 5},
		{3, 5}, {4, 5}, {5, 5},
		{5, 4}, {5, 3}, {5, 2},
		{4, 2}, {3, 2},
	}
	if diff := cmp.Diff(want, contours[0].Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	if contours[0].Area != 9 {
		t.Errorf("Area: got %v, want 9", contours[0].Area)
	}
	if b := contours[0].Bounds(); b != (Bounds{X1: 2, Y1: 2, X2: 6, Y2: 6}) {
		t.Errorf("Bounds: got %+v", b)
	}
}

func TestFindExternalContours_Cases(t *testing.T) {
	tests := []struct {
		name      string
		mask      *image.Gray
		wantCount int
		wantFirst []Point
	}{
		{
			name:      "empty",
			mask:      maskFromRows("....", "....", "...."),
			wantCount: 0,
		},
		{
			name:      "single pixel",
			mask:      maskFromRows("...", ".#.", "..."),
			wantCount: 1,
			wantFirst: []Point{{1, 1}},
		},
		{
			name:      "horizontal line",
			mask:      maskFromRows("###"),
			wantCount: 1,
			wantFirst: []Point{{0, 0}, {1, 0}, {2, 0}, {1, 0}},
		},
		{
			name:      "diagonal pixels are connected",
			mask:      maskFromRows("#..", ".#.", "..."),
			wantCount: 1,
			wantFirst: []Point{{0, 0}, {1, 1}},
		},
		{
			name:      "touching the border",
			mask:      maskFromRows("###", "###", "###"),
			wantCount: 1,
			wantFirst: []Point{{0, 0}, {0, 1}, {0, 2}, {1, 2}, {2, 2}, {2, 1}, {2, 0}, {1, 0}},
		},
		{
			name: "two regions in raster order",
			mask: maskFromRows(
				"....##",
				"#...##",
				"#.....",
			),
			wantCount: 2,
			wantFirst: []Point{{4, 0}, {4, 1}, {5, 1}, {5, 0}},
		},
		{
			name: "region inside a hole is skipped",
			mask: maskFromRows(
				"#######",
				"#.....#",
				"#..#..#",
				"#.....#",
				"#######",
			),
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contours := FindExternalContours(tt.mask)
			if len(contours) != tt.wantCount {
				t.Fatalf("expected %d contours, got %d", tt.wantCount, len(contours))
			}
			if tt.wantFirst != nil {
				if diff := cmp.Diff(tt.wantFirst, contours[0].Points); diff != "" {
					t.Errorf("first contour mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestFindExternalContours_Subimage(t *testing.T) {
	base := createRectMask(20, 20, image.Rect(8, 8, 12, 12))
	sub := base.SubImage(image.Rect(5, 5, 15, 15)).(*image.Gray)

	contours := FindExternalContours(sub)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	if got := contours[0].Points[0]; got != (Point{3, 3}) {
		t.Errorf("first point should be relative to the subimage, got %v", got)
	}
}

func TestLargest(t *testing.T) {
	mask := maskFromRows(
		"##......",
		"##..####",
		"....####",
		"##..####",
		"##......",
	)
	contours := FindExternalContours(mask)
	if len(contours) != 3 {
		t.Fatalf("expected 3 contours, got %d", len(contours))
	}

	got, ok := Largest(contours)
	if !ok {
		t.Fatal("Largest should succeed")
	}
	if got.Area != 6 || got.Points[0] != (Point{4, 1}) {
		t.Errorf("got area %v starting at %v, want 6 at (4,1)", got.Area, got.Points[0])
	}

	// Equal areas: the first one found wins.
	tied := FindExternalContours(maskFromRows("##.##", "##.##"))
	got, _ = Largest(tied)
	if got.Points[0] != (Point{0, 0}) {
		t.Errorf("tie should keep the first contour, got %v", got.Points[0])
	}

	if _, ok := Largest(nil); ok {
		t.Error("Largest of nothing should report false")
	}
}

func TestContourArea(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		want   float64
	}{
		{"empty", nil, 0},
		{"two points", []Point{{0, 0}, {5, 5}}, 0},
		{"square", []Point{{0, 0}, {0, 4}, {4, 4}, {4, 0}}, 16},
		{"reversed square", []Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, 16},
		{"triangle", []Point{{0, 0}, {0, 4}, {4, 4}}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContourArea(tt.points); got != tt.want {
				t.Errorf("ContourArea = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimplify(t *testing.T) {
	contours := FindExternalContours(createRectMask(10, 10, image.Rect(2, 2, 6, 6)))

	got := Simplify(contours[0].Points)
	want := []Point{{2, 2}, {2, 5}, {5, 5}, {5, 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Simplify mismatch (-want +got):\n%s", diff)
	}
	if ContourArea(got) != contours[0].Area {
		t.Error("simplified contour should enclose the same area")
	}

	short := []Point{{1, 1}, {2, 1}}
	if diff := cmp.Diff(short, Simplify(short)); diff != "" {
		t.Errorf("short contours are returned as is (-want +got):\n%s", diff)
	}
}

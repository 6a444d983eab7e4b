package label

import (
	"strconv"
	"strings"

	"github.com/ironsheep/leaf-label-tools/internal/detection"
)

// Record is one polygon annotation: a class id plus the contour it outlines,
// together with the size of the mask the contour was traced on.
type Record struct {
	ClassID int               `json:"class_id"`
	Points  []detection.Point `json:"points"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`

	// Bounds is the pixel bounding box of the traced contour.
	Bounds detection.Bounds `json:"bounds"`
}

// Coordinates returns the normalized polygon as x0, y0, x1, y1, ... where
// every x is divided by the mask width and every y by the mask height.
func (r *Record) Coordinates() []float64 {
	out := make([]float64, 0, 2*len(r.Points))
	for _, p := range r.Points {
		out = append(out, float64(p.X)/float64(r.Width), float64(p.Y)/float64(r.Height))
	}
	return out
}

// String formats the record as a segmentation label line:
//
//	<class_id> <x0> <y0> <x1> <y1> ...
//
// Coordinates are written with six decimals. There is no trailing newline.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(r.ClassID))
	for _, v := range r.Coordinates() {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
	}
	return b.String()
}

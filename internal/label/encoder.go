package label

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/leaf-label-tools/internal/detection"
	"github.com/ironsheep/leaf-label-tools/internal/imaging"
)

// ErrNoForeground is returned when a mask has no region to outline. No label
// is written for such images.
var ErrNoForeground = errors.New("no foreground contour")

// Approximation selects how much of the traced border ends up in a label.
type Approximation string

const (
	// ApproxNone emits every traced border pixel.
	ApproxNone Approximation = "none"

	// ApproxSimple keeps only the end points of straight horizontal,
	// vertical and diagonal runs.
	ApproxSimple Approximation = "simple"
)

// ParseApproximation accepts "none", "simple" or an empty string (none).
func ParseApproximation(s string) (Approximation, error) {
	switch Approximation(strings.ToLower(strings.TrimSpace(s))) {
	case "", ApproxNone:
		return ApproxNone, nil
	case ApproxSimple:
		return ApproxSimple, nil
	default:
		return "", fmt.Errorf("unknown approximation %q (valid: none, simple)", s)
	}
}

// Encoder turns foreground masks into label records.
type Encoder struct {
	Approximation Approximation
}

// Encode outlines mask with the default encoder, which emits every traced
// border point.
func Encode(mask *image.Gray, classID int) (*Record, bool) {
	return Encoder{}.Encode(mask, classID)
}

// Encode traces the external contours of mask, keeps the one enclosing the
// largest area (the first on ties) and returns it as a record for classID.
//
// It reports false when the mask has no foreground or classID is negative.
// Encoding is deterministic: the same mask and class always produce the same
// record.
func (e Encoder) Encode(mask *image.Gray, classID int) (*Record, bool) {
	if mask == nil || classID < 0 {
		return nil, false
	}
	b := mask.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, false
	}

	largest, ok := detection.Largest(detection.FindExternalContours(mask))
	if !ok {
		return nil, false
	}

	points := largest.Points
	if e.Approximation == ApproxSimple {
		points = detection.Simplify(points)
	}

	return &Record{
		ClassID: classID,
		Points:  points,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Bounds:  largest.Bounds(),
	}, true
}

// MaskFor derives the foreground mask of a processed raster: its alpha plane
// when it has one, otherwise every pixel whose luminance is above 1.
func MaskFor(r *imaging.Raster) *image.Gray {
	if r.HasAlpha() {
		return r.Alpha()
	}
	return imaging.Threshold(r.Gray(), 1, false)
}

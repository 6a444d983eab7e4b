package imaging

import (
	"image"
	"math"
)

// MaskStats summarizes the foreground of a binary mask.
type MaskStats struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Foreground int     `json:"foreground"`
	Coverage   float64 `json:"coverage_percent"`
	Bounds     *Box    `json:"bounds,omitempty"`
}

// Box is a pixel rectangle; (X1,Y1) is inclusive and (X2,Y2) exclusive.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// MeasureMask counts the non-zero pixels of mask and locates their bounding
// box. Coverage is a percentage of the mask area rounded to one decimal.
func MeasureMask(mask *image.Gray) MaskStats {
	b := mask.Bounds()
	stats := MaskStats{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Foreground: CountNonZero(mask),
	}

	if area := b.Dx() * b.Dy(); area > 0 {
		stats.Coverage = math.Round(float64(stats.Foreground)/float64(area)*1000) / 10
	}
	if rect, ok := BoundingRect(mask); ok {
		stats.Bounds = &Box{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y}
	}
	return stats
}

// Foreground returns the mask the pipeline measures a raster by: the alpha
// plane for 4-channel rasters and the non-zero luminance pixels otherwise.
func Foreground(r *Raster) *image.Gray {
	if r.HasAlpha() {
		return r.Alpha()
	}
	return r.Gray()
}

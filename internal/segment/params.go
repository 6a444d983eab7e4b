package segment

import (
	"fmt"

	"github.com/ironsheep/leaf-label-tools/internal/imaging"
)

// Params holds the tunable constants of the stages.
type Params struct {
	// BlurKernel is the Gaussian window size used for the shared pre-blur and
	// for softening the edge mask. Default: 5.
	BlurKernel int

	// MorphKernel is the square structuring element size. Default: 3.
	MorphKernel int

	// HSV is the color stage's keep range.
	HSV imaging.HSVRange

	// CannyLow and CannyHigh are the edge hysteresis thresholds.
	// Defaults: 50 and 150.
	CannyLow  float64
	CannyHigh float64

	// EdgeDilate and EdgeErode are the iteration counts used to close gaps
	// in the edge map before contour tracing. Defaults: 2 and 1.
	EdgeDilate int
	EdgeErode  int

	// EdgeThreshold re-binarizes the softened edge mask (kept if above).
	// Default: 127.
	EdgeThreshold uint8

	// AlphaThreshold is the luminance a pixel must exceed to stay opaque in
	// the alpha stage. Default: 1.
	AlphaThreshold uint8

	// Cluster configures the k-means stage. Its Rand field is ignored; a
	// source seeded with Seed is created for every image.
	Cluster imaging.KMeansOptions

	// Seed makes the cluster stage reproducible.
	Seed uint64
}

// DefaultParams returns the stage constants the pipeline was tuned with.
func DefaultParams() Params {
	return Params{
		BlurKernel:     5,
		MorphKernel:    3,
		HSV:            imaging.VegetationRange,
		CannyLow:       50,
		CannyHigh:      150,
		EdgeDilate:     2,
		EdgeErode:      1,
		EdgeThreshold:  127,
		AlphaThreshold: 1,
		Cluster:        imaging.DefaultKMeansOptions(),
	}
}

// Validate checks the parameters for values no stage can work with.
func (p Params) Validate() error {
	if p.BlurKernel < 1 || p.BlurKernel%2 == 0 {
		return fmt.Errorf("blur kernel must be a positive odd number, got %d", p.BlurKernel)
	}
	if p.MorphKernel < 1 || p.MorphKernel%2 == 0 {
		return fmt.Errorf("morph kernel must be a positive odd number, got %d", p.MorphKernel)
	}
	if p.CannyLow < 0 || p.CannyHigh < 0 {
		return fmt.Errorf("canny thresholds must not be negative")
	}
	if p.EdgeDilate < 0 || p.EdgeErode < 0 {
		return fmt.Errorf("edge iterations must not be negative")
	}
	if p.Cluster.K < 2 {
		return fmt.Errorf("cluster count must be at least 2, got %d", p.Cluster.K)
	}
	if p.Cluster.MaxIter < 1 || p.Cluster.Attempts < 1 {
		return fmt.Errorf("cluster iterations and attempts must be positive")
	}
	if p.Cluster.Epsilon < 0 {
		return fmt.Errorf("cluster epsilon must not be negative")
	}
	return nil
}

package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KMeansOptions controls a k-means run.
type KMeansOptions struct {
	// K is the number of clusters. Default: 2.
	K int

	// MaxIter caps the iterations of one attempt. At least two iterations
	// always run. Default: 10.
	MaxIter int

	// Epsilon stops an attempt once no center moves farther than this
	// (Euclidean distance). Default: 1.0.
	Epsilon float64

	// Attempts is the number of independent random initializations; the one
	// with the lowest compactness wins. Default: 10.
	Attempts int

	// Rand supplies the random centers. Nil uses a fixed-seed source.
	Rand *rand.Rand
}

// DefaultKMeansOptions returns the settings used by the cluster stage.
func DefaultKMeansOptions() KMeansOptions {
	return KMeansOptions{K: 2, MaxIter: 10, Epsilon: 1.0, Attempts: 10}
}

// NewSeededRand returns a deterministic random source for KMeansOptions.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// KMeansResult is the outcome of the best attempt.
type KMeansResult struct {
	// Labels holds the cluster index of every sample.
	Labels []int

	// Centers holds the K cluster centers, each of the sample dimension.
	Centers [][]float64

	// Compactness is the sum of squared distances from every sample to its
	// center.
	Compactness float64
}

// KMeans clusters n samples of dimension dim stored row-major in data.
//
// # Algorithm
//
// Each attempt draws K centers uniformly inside the per-dimension bounding
// box of the data (widened by 1/dim on each side), assigns every sample to
// its nearest center and recomputes centers as cluster means. A cluster that
// loses all its samples takes the sample of the largest cluster that lies
// farthest from that cluster's center. An attempt stops after MaxIter
// iterations or once the largest center shift drops to Epsilon. The final
// compactness is measured against the last assignment.
func KMeans(data []float64, dim int, opts KMeansOptions) (*KMeansResult, error) {
	opts = withKMeansDefaults(opts)
	if dim <= 0 || len(data)%dim != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of dimension %d", len(data), dim)
	}
	n := len(data) / dim
	if n < opts.K {
		return nil, fmt.Errorf("need at least %d samples, got %d", opts.K, n)
	}

	lo := make([]float64, dim)
	hi := make([]float64, dim)
	copy(lo, data[:dim])
	copy(hi, data[:dim])
	for i := 1; i < n; i++ {
		s := data[i*dim : (i+1)*dim]
		for j, v := range s {
			lo[j] = math.Min(lo[j], v)
			hi[j] = math.Max(hi[j], v)
		}
	}

	epsSq := opts.Epsilon * opts.Epsilon
	maxIter := max(opts.MaxIter, 2)

	var best *KMeansResult
	for a := 0; a < opts.Attempts; a++ {
		res := kmeansAttempt(data, dim, n, opts.K, maxIter, epsSq, lo, hi, opts.Rand)
		if best == nil || res.Compactness < best.Compactness {
			best = res
		}
	}
	return best, nil
}

func withKMeansDefaults(opts KMeansOptions) KMeansOptions {
	def := DefaultKMeansOptions()
	if opts.K <= 0 {
		opts.K = def.K
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = def.MaxIter
	}
	if opts.Epsilon < 0 {
		opts.Epsilon = 0
	}
	if opts.Attempts <= 0 {
		opts.Attempts = def.Attempts
	}
	if opts.Rand == nil {
		opts.Rand = NewSeededRand(0)
	}
	return opts
}

func kmeansAttempt(data []float64, dim, n, k, maxIter int, epsSq float64, lo, hi []float64, rng *rand.Rand) *KMeansResult {
	margin := 1.0 / float64(dim)
	centers := make([][]float64, k)
	old := make([][]float64, k)
	for c := range centers {
		centers[c] = make([]float64, dim)
		old[c] = make([]float64, dim)
		for j := range centers[c] {
			u := rng.Float64()*(1+2*margin) - margin
			centers[c][j] = lo[j] + u*(hi[j]-lo[j])
		}
	}

	labels := make([]int, n)
	assign(data, dim, centers, labels)

	counts := make([]int, k)
	for iter := 1; ; {
		for c := range centers {
			old[c], centers[c] = centers[c], old[c]
		}
		recenter(data, dim, labels, centers, old, counts)

		shift := 0.0
		for c := range centers {
			d := floats.Distance(centers[c], old[c], 2)
			shift = math.Max(shift, d*d)
		}

		iter++
		if iter == maxIter || shift <= epsSq {
			break
		}
		assign(data, dim, centers, labels)
	}

	compactness := 0.0
	for i := 0; i < n; i++ {
		compactness += sqDist(data[i*dim:(i+1)*dim], centers[labels[i]])
	}
	return &KMeansResult{Labels: labels, Centers: centers, Compactness: compactness}
}

// assign labels every sample with its nearest center; ties go to the lower
// index.
func assign(data []float64, dim int, centers [][]float64, labels []int) {
	for i := range labels {
		s := data[i*dim : (i+1)*dim]
		bestC, bestD := 0, math.MaxFloat64
		for c, center := range centers {
			if d := sqDist(s, center); d < bestD {
				bestC, bestD = c, d
			}
		}
		labels[i] = bestC
	}
}

// recenter writes cluster means into centers. prev holds the centers the
// labels were assigned against and is used to pick a donor for empty
// clusters.
func recenter(data []float64, dim int, labels []int, centers, prev [][]float64, counts []int) {
	for c := range centers {
		for j := range centers[c] {
			centers[c][j] = 0
		}
		counts[c] = 0
	}
	for i, c := range labels {
		floats.Add(centers[c], data[i*dim:(i+1)*dim])
		counts[c]++
	}

	for c := range centers {
		if counts[c] != 0 {
			continue
		}
		largest := 0
		for k := range counts {
			if counts[k] > counts[largest] {
				largest = k
			}
		}
		far, farD := -1, -1.0
		for i, l := range labels {
			if l != largest {
				continue
			}
			if d := sqDist(data[i*dim:(i+1)*dim], prev[largest]); d > farD {
				far, farD = i, d
			}
		}
		s := data[far*dim : (far+1)*dim]
		floats.Sub(centers[largest], s)
		floats.Add(centers[c], s)
		counts[largest]--
		counts[c]++
		labels[far] = c
	}

	for c, center := range centers {
		for j := range center {
			center[j] /= float64(counts[c])
		}
	}
}

func sqDist(a, b []float64) float64 {
	d := 0.0
	for j := range a {
		t := a[j] - b[j]
		d += t * t
	}
	return d
}

// ErrTooFewPixels is returned by ClusterMask for images with fewer pixels
// than clusters.
var ErrTooFewPixels = errors.New("too few pixels to cluster")

// ClusterMask splits the raster's colors into opts.K clusters and marks as
// foreground (255) every pixel outside the background cluster. The background
// is the cluster whose center has the highest mean channel intensity; the
// first such cluster wins ties.
func ClusterMask(r *Raster, opts KMeansOptions) (*image.Gray, error) {
	w, h := r.Width(), r.Height()
	data := make([]float64, 0, w*h*3)
	pix := r.Img.Pix
	for i := 0; i < len(pix); i += 4 {
		data = append(data, float64(pix[i]), float64(pix[i+1]), float64(pix[i+2]))
	}

	withDefaults := withKMeansDefaults(opts)
	if w*h < withDefaults.K {
		return nil, ErrTooFewPixels
	}
	res, err := KMeans(data, 3, withDefaults)
	if err != nil {
		return nil, err
	}

	bg, bgMean := 0, math.Inf(-1)
	for c, center := range res.Centers {
		if m := stat.Mean(center, nil); m > bgMean {
			bg, bgMean = c, m
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for i, l := range res.Labels {
		if l != bg {
			out.Pix[i] = 255
		}
	}
	return out, nil
}

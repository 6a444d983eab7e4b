package segment

import (
	"image"
	"time"

	"github.com/ironsheep/leaf-label-tools/internal/detection"
	"github.com/ironsheep/leaf-label-tools/internal/imaging"
	"github.com/ironsheep/leaf-label-tools/internal/logger"
)

const component = "segment"

// StepReport records the effect of one enabled stage.
type StepReport struct {
	Stage StageName `json:"stage"`

	// Applied is false when the stage found nothing to act on (no edge
	// contour, empty crop mask, too few pixels to cluster) and left the
	// image unchanged.
	Applied bool `json:"applied"`

	// Foreground is the number of foreground pixels after the stage.
	Foreground int `json:"foreground"`

	DurationMS int64 `json:"duration_ms"`
}

// Result is the outcome of running the pipeline on one image.
type Result struct {
	// Original is the input raster, untouched.
	Original *imaging.Raster

	// Processed is the raster after every enabled stage.
	Processed *imaging.Raster

	// Steps has one entry per enabled stage, in evaluation order.
	Steps []StepReport
}

// Pipeline runs the segmentation stages with a fixed set of parameters.
// It holds no per-image state and is safe for sequential reuse.
type Pipeline struct {
	params Params
	log    logger.Logger
	cache  *imaging.ImageCache
}

// New creates a pipeline. A nil logger discards output; a nil cache decodes
// every file from disk.
func New(params Params, log logger.Logger, cache *imaging.ImageCache) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{params: params, log: log, cache: cache}
}

// Release drops the decoded copy of path from the image cache, if any.
func (p *Pipeline) Release(path string) {
	if p.cache != nil {
		p.cache.Evict(path)
	}
}

// SegmentFile decodes path and segments it. A decode failure returns a nil
// result and an error wrapping imaging.ErrDecode; no stage runs.
func (p *Pipeline) SegmentFile(path string, cfg Config) (*Result, error) {
	var (
		src *imaging.Raster
		err error
	)
	if p.cache != nil {
		src, err = p.cache.Load(path)
	} else {
		src, err = imaging.Load(path)
	}
	if err != nil {
		p.log.Warning(component, "image could not be decoded", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, err
	}
	return p.Segment(src, cfg), nil
}

// Segment runs the enabled stages over src in their fixed order.
//
// The running result starts as a copy of src. The masking stages (color,
// edge, cluster, statistical) each derive a mask and AND it into the result,
// so the foreground can only shrink. Alpha turns the remaining foreground
// into an alpha channel and crop trims the result to its foreground bounding
// box. src is never modified.
func (p *Pipeline) Segment(src *imaging.Raster, cfg Config) *Result {
	res := &Result{Original: src, Processed: src.Clone()}
	if cfg.Empty() {
		return res
	}

	blurred := imaging.GaussianBlur(src, p.params.BlurKernel)
	for _, st := range p.stages(blurred, cfg) {
		if !cfg.Enabled(st.name) {
			continue
		}

		start := time.Now()
		out, applied := st.apply(res.Processed)
		res.Processed = out

		step := StepReport{
			Stage:      st.name,
			Applied:    applied,
			Foreground: imaging.CountNonZero(imaging.Foreground(out)),
			DurationMS: time.Since(start).Milliseconds(),
		}
		res.Steps = append(res.Steps, step)

		p.log.Debug(component, "stage complete", map[string]interface{}{
			"stage":      string(st.name),
			"applied":    applied,
			"foreground": step.Foreground,
			"elapsed_ms": step.DurationMS,
		})
	}
	return res
}

// stage is one named step of the pipeline. apply returns the new result and
// whether the stage changed anything.
type stage struct {
	name  StageName
	apply func(result *imaging.Raster) (*imaging.Raster, bool)
}

// stages lists every stage in evaluation order, bound to the shared blurred
// copy of the input.
func (p *Pipeline) stages(blurred *imaging.Raster, cfg Config) []stage {
	return []stage{
		{StageColor, func(result *imaging.Raster) (*imaging.Raster, bool) {
			mask := imaging.HSVMask(blurred, p.params.HSV)
			return p.and(result, imaging.OpenClose(mask, p.params.MorphKernel))
		}},
		{StageEdge, func(result *imaging.Raster) (*imaging.Raster, bool) {
			source := blurred
			if cfg.Enabled(StageColor) {
				source = result
			}
			mask, ok := p.edgeMask(source.Gray())
			if !ok {
				return result, false
			}
			return p.and(result, mask)
		}},
		{StageCluster, func(result *imaging.Raster) (*imaging.Raster, bool) {
			opts := p.params.Cluster
			opts.Rand = imaging.NewSeededRand(p.params.Seed)
			mask, err := imaging.ClusterMask(blurred, opts)
			if err != nil {
				p.log.Warning(component, "cluster stage skipped", map[string]interface{}{
					"error": err.Error(),
				})
				return result, false
			}
			return p.and(result, imaging.OpenClose(mask, p.params.MorphKernel))
		}},
		{StageStatistical, func(result *imaging.Raster) (*imaging.Raster, bool) {
			gray := blurred.Gray()
			level := imaging.OtsuThreshold(gray)
			mask := imaging.Threshold(gray, level, true)
			p.log.Debug(component, "otsu threshold", map[string]interface{}{"level": level})
			return p.and(result, imaging.OpenClose(mask, p.params.MorphKernel))
		}},
		{StageAlpha, func(result *imaging.Raster) (*imaging.Raster, bool) {
			var mask *image.Gray
			if result.HasAlpha() {
				mask = result.Alpha()
			} else {
				mask = imaging.Threshold(result.Gray(), p.params.AlphaThreshold, false)
			}
			out, err := result.WithAlpha(mask)
			if err != nil {
				p.log.Error(component, err, map[string]interface{}{"stage": string(StageAlpha)})
				return result, false
			}
			return out, true
		}},
		{StageCrop, func(result *imaging.Raster) (*imaging.Raster, bool) {
			return imaging.CropToMask(result)
		}},
	}
}

// edgeMask outlines the dominant object of a luminance plane: Canny edges are
// closed with dilation and erosion, the largest external contour is filled
// solid and its outline softened and re-binarized.
func (p *Pipeline) edgeMask(gray *image.Gray) (*image.Gray, bool) {
	edges := imaging.Canny(gray, p.params.CannyLow, p.params.CannyHigh)
	edges = imaging.Dilate(edges, p.params.MorphKernel, p.params.EdgeDilate)
	edges = imaging.Erode(edges, p.params.MorphKernel, p.params.EdgeErode)

	largest, ok := detection.Largest(detection.FindExternalContours(edges))
	if !ok {
		return nil, false
	}

	b := gray.Bounds()
	mask := detection.FillContour(b.Dx(), b.Dy(), largest.Points)
	mask = imaging.GaussianBlurGray(mask, p.params.BlurKernel)
	return imaging.Threshold(mask, p.params.EdgeThreshold, false), true
}

// and clears every result pixel outside mask.
func (p *Pipeline) and(result *imaging.Raster, mask *image.Gray) (*imaging.Raster, bool) {
	out, err := result.ApplyMask(mask)
	if err != nil {
		p.log.Error(component, err, nil)
		return result, false
	}
	return out, true
}

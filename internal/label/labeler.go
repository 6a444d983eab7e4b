package label

import (
	"fmt"

	"github.com/ironsheep/leaf-label-tools/internal/detection"
	"github.com/ironsheep/leaf-label-tools/internal/logger"
	"github.com/ironsheep/leaf-label-tools/internal/segment"
)

const component = "label"

// Labeler segments images, encodes their foreground and writes label files.
type Labeler struct {
	pipeline *segment.Pipeline
	encoder  Encoder
	log      logger.Logger
}

// NewLabeler creates a labeler. A nil logger discards output.
func NewLabeler(pipeline *segment.Pipeline, encoder Encoder, log logger.Logger) *Labeler {
	if log == nil {
		log = logger.Nop()
	}
	return &Labeler{pipeline: pipeline, encoder: encoder, log: log}
}

// LabelRequest describes one image to label.
type LabelRequest struct {
	// ImagePath is the image to segment.
	ImagePath string

	// Root is the dataset root whose class folders define class ids.
	Root string

	// Class is the selected class name. Unknown names map to class 0.
	Class string

	// OutputDir receives <base>.txt. Empty means encode only.
	OutputDir string

	// Filters selects the pipeline stages.
	Filters segment.Config
}

// LabelResult describes a labeled image.
type LabelResult struct {
	ImagePath string  `json:"image_path"`
	LabelPath string  `json:"label_path,omitempty"`
	ClassID   int     `json:"class_id"`
	Points    int     `json:"points"`
	Line      string  `json:"line"`
	Record    *Record `json:"-"`

	// Bounds is the pixel bounding box of the labeled region within the
	// processed image.
	Bounds detection.Bounds `json:"bounds"`

	// Segmentation is the pipeline result the label was derived from.
	Segmentation *segment.Result `json:"-"`
}

// LabelImage resolves the class id from the folders currently under
// req.Root, segments the image, encodes the largest foreground region and, if
// req.OutputDir is set, writes the label file.
//
// Decode failures return an error wrapping imaging.ErrDecode. A mask without
// foreground returns ErrNoForeground and writes nothing.
func (l *Labeler) LabelImage(req LabelRequest) (*LabelResult, error) {
	classID, err := ResolveClassID(req.Root, req.Class)
	if err != nil {
		return nil, err
	}
	return l.labelWithID(req, classID)
}

// labelWithID labels one image with an already resolved class id.
func (l *Labeler) labelWithID(req LabelRequest, classID int) (*LabelResult, error) {
	seg, err := l.pipeline.SegmentFile(req.ImagePath, req.Filters)
	if err != nil {
		return nil, err
	}

	rec, ok := l.encoder.Encode(MaskFor(seg.Processed), classID)
	if !ok {
		l.log.Warning(component, "no foreground contour, label skipped", map[string]interface{}{
			"image": req.ImagePath,
		})
		return nil, fmt.Errorf("%s: %w", req.ImagePath, ErrNoForeground)
	}

	res := &LabelResult{
		ImagePath:    req.ImagePath,
		ClassID:      classID,
		Points:       len(rec.Points),
		Line:         rec.String(),
		Bounds:       rec.Bounds,
		Record:       rec,
		Segmentation: seg,
	}

	if req.OutputDir == "" {
		return res, nil
	}

	path, err := WriteLabel(req.OutputDir, req.ImagePath, rec)
	if err != nil {
		return nil, err
	}
	res.LabelPath = path

	l.log.Info(component, "label written", map[string]interface{}{
		"image":    req.ImagePath,
		"label":    path,
		"class_id": classID,
		"points":   res.Points,
	})
	return res, nil
}

package label

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/leaf-label-tools/internal/imaging"
	"github.com/ironsheep/leaf-label-tools/internal/logger"
	"github.com/ironsheep/leaf-label-tools/internal/segment"
)

// ErrClassFolderMissing is returned when the selected class has no folder
// under the dataset root. The batch aborts before writing anything.
var ErrClassFolderMissing = errors.New("class folder does not exist")

// BatchRequest describes a batch labeling run for one class.
type BatchRequest struct {
	// Root is the dataset root holding one folder per class.
	Root string

	// Class is the class to label. Only images whose parent folder has
	// exactly this name are processed.
	Class string

	// Paths are the candidate images. Nil means every image catalogued
	// under Root.
	Paths []string

	// OutputDir receives <Class>/<base>.txt for every labeled image.
	OutputDir string

	// Filters selects the pipeline stages.
	Filters segment.Config
}

// BatchItem is the outcome for one image.
type BatchItem struct {
	ImagePath string `json:"image_path"`
	LabelPath string `json:"label_path,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	RunID     string      `json:"run_id"`
	Class     string      `json:"class"`
	ClassID   int         `json:"class_id"`
	OutputDir string      `json:"output_dir"`
	Written   []BatchItem `json:"written"`
	Skipped   []BatchItem `json:"skipped"`
	Failed    []BatchItem `json:"failed"`
	ElapsedMS int64       `json:"elapsed_ms"`
}

// Total returns the number of images the run looked at.
func (r *BatchReport) Total() int {
	return len(r.Written) + len(r.Skipped) + len(r.Failed)
}

// Batcher labels every image of one class, sequentially.
type Batcher struct {
	labeler *Labeler
	log     logger.Logger
}

// NewBatcher creates a batcher. A nil logger discards output.
func NewBatcher(labeler *Labeler, log logger.Logger) *Batcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Batcher{labeler: labeler, log: log}
}

// Run labels the images of req.Class.
//
// The class id is resolved once, when the run starts. Each image is dropped
// from the pipeline's image cache once it has been labeled. Images that cannot be
// decoded or have no foreground are recorded as skipped; images whose label
// cannot be written are recorded as failed. Either way the run continues.
// Cancelling ctx stops the run between images and returns the partial report
// together with the context error.
func (b *Batcher) Run(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	start := time.Now()

	info, err := os.Stat(filepath.Join(req.Root, req.Class))
	if req.Class == "" || err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q under %s", ErrClassFolderMissing, req.Class, req.Root)
	}

	classID, err := ResolveClassID(req.Root, req.Class)
	if err != nil {
		return nil, err
	}

	paths := req.Paths
	if paths == nil {
		catalog, err := imaging.OpenFolder(req.Root)
		if err != nil {
			return nil, err
		}
		paths = catalog.Paths()
	}

	report := &BatchReport{
		RunID:     uuid.NewString(),
		Class:     req.Class,
		ClassID:   classID,
		OutputDir: filepath.Join(req.OutputDir, req.Class),
		Written:   []BatchItem{},
		Skipped:   []BatchItem{},
		Failed:    []BatchItem{},
	}

	b.log.Info(component, "batch started", map[string]interface{}{
		"run_id":   report.RunID,
		"class":    req.Class,
		"class_id": classID,
		"output":   report.OutputDir,
	})

	for _, path := range paths {
		if imaging.ClassOf(path) != req.Class {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.ElapsedMS = time.Since(start).Milliseconds()
			b.log.Warning(component, "batch cancelled", map[string]interface{}{
				"run_id":  report.RunID,
				"written": len(report.Written),
			})
			return report, err
		}

		res, err := b.labeler.labelWithID(LabelRequest{
			ImagePath: path,
			OutputDir: report.OutputDir,
			Filters:   req.Filters,
		}, classID)
		b.labeler.pipeline.Release(path)

		switch {
		case err == nil:
			report.Written = append(report.Written, BatchItem{ImagePath: path, LabelPath: res.LabelPath})
		case errors.Is(err, imaging.ErrDecode), errors.Is(err, ErrNoForeground):
			report.Skipped = append(report.Skipped, BatchItem{ImagePath: path, Reason: err.Error()})
		default:
			b.log.Error(component, err, map[string]interface{}{"image": path})
			report.Failed = append(report.Failed, BatchItem{ImagePath: path, Reason: err.Error()})
		}
	}

	report.ElapsedMS = time.Since(start).Milliseconds()
	b.log.Info(component, "batch finished", map[string]interface{}{
		"run_id":  report.RunID,
		"images":  report.Total(),
		"written": len(report.Written),
		"skipped": len(report.Skipped),
		"failed":  len(report.Failed),
	})
	return report, nil
}

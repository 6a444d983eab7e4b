package label

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

const labelPerm = 0o644

// LabelPath returns where the label for imagePath goes inside dir:
// the image base name with its extension replaced by ".txt".
func LabelPath(dir, imagePath string) string {
	base := filepath.Base(imagePath)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".txt")
}

// WriteLabel writes rec as a single line to LabelPath(dir, imagePath),
// replacing any existing label. dir is created if needed.
//
// The file is replaced atomically, so a reader never sees a partially
// written label.
func WriteLabel(dir, imagePath string, rec *Record) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create label directory: %w", err)
	}

	path := LabelPath(dir, imagePath)
	if err := atomic.WriteFile(path, strings.NewReader(rec.String()+"\n")); err != nil {
		return "", fmt.Errorf("failed to write label: %w", err)
	}
	if err := os.Chmod(path, labelPerm); err != nil {
		return "", fmt.Errorf("failed to set label permissions: %w", err)
	}
	return path, nil
}

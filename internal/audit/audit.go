// Package audit persists per-stage snapshots of the formatting pipeline
// so a suspicious fix can be traced back to the pass that produced it.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/harborview-data/fluffctl/internal/preformat"
)

// Trail writes the audit files for one formatting run. Every run gets
// its own directory so successive runs never overwrite each other.
type Trail struct {
	// Root is the audit directory from configuration.
	Root string
	// RunID names this run's subdirectory.
	RunID string
	// Mirror reproduces the source tree layout under the run directory.
	Mirror bool
}

// New creates a trail with a fresh run ID.
func New(root string, mirror bool) *Trail {
	return &Trail{
		Root:   root,
		RunID:  uuid.NewString(),
		Mirror: mirror,
	}
}

// Dir returns this run's directory.
func (t *Trail) Dir() string {
	return filepath.Join(t.Root, t.RunID)
}

// fileBase returns the directory all snapshots for relPath go into,
// creating it on first use.
func (t *Trail) fileBase(relPath string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	base := filepath.Join(t.Dir(), stem)
	if t.Mirror {
		base = filepath.Join(t.Dir(), filepath.Dir(relPath), stem)
	}
	if err := os.MkdirAll(base, 0o750); err != nil {
		return "", fmt.Errorf("failed to create audit directory %s: %w", base, err)
	}
	return base, nil
}

// Record writes the original input, every recorded stage, and the final
// output for one file. When diffDetected is set a marker file flags the
// run for manual review.
func (t *Trail) Record(relPath, original string, res preformat.Result) error {
	base, err := t.fileBase(relPath)
	if err != nil {
		return err
	}
	stem := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))

	write := func(name, content string) error {
		path := filepath.Join(base, name)
		if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
			return fmt.Errorf("failed to write audit file %s: %w", path, err)
		}
		return nil
	}

	if err := write(fmt.Sprintf("%s_00_original.sql", stem), original); err != nil {
		return err
	}
	for i, stage := range res.Stages {
		name := fmt.Sprintf("%s_%02d_%s.sql", stem, i+1, stage.Name)
		if err := write(name, stage.Content); err != nil {
			return err
		}
	}
	if err := write(fmt.Sprintf("%s_%02d_post_format.sql", stem, len(res.Stages)+1), res.Text); err != nil {
		return err
	}

	if res.DiffDetected {
		marker := fmt.Sprintf("%s_DIFF_DETECTED.txt", stem)
		note := "content changed beyond whitespace and casing; review before committing\n"
		if err := write(marker, note); err != nil {
			return err
		}
	}
	return nil
}

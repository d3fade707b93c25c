package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDestination writes snapshots to a local file. The file is replaced
// atomically so readers never see a partial snapshot. A "{time}" in the
// path keeps one file per snapshot instead.
type FileDestination struct {
	pattern string
}

// NewFileDestination returns a destination writing to path.
func NewFileDestination(path string) *FileDestination {
	return &FileDestination{pattern: path}
}

// Name returns the path pattern.
func (d *FileDestination) Name() string {
	return d.pattern
}

func (d *FileDestination) Write(_ context.Context, snap *Snapshot) error {
	path := expandTime(d.pattern, snap.TakenAt)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".scout-backup-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(snap.Data); err != nil {
		tmp.Close()
		return fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace backup: %w", err)
	}
	return nil
}

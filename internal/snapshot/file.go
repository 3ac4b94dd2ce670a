package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath is the snapshot file name used when none is configured.
const DefaultPath = ".control-log"

// WriteFile encodes s into path. The snapshot is written to a temporary file
// in the same directory and renamed into place so a failed write never
// leaves a truncated snapshot behind.
func WriteFile(path string, s Snapshot) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if err := Write(tmp, s); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("snapshot: close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("snapshot: rename %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and decodes the snapshot stored at path. A missing file is
// reported as an error wrapping fs.ErrNotExist, never as an empty snapshot.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	return s, nil
}

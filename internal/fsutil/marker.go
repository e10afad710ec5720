package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// InjectMarkers writes content as <dir>/<name> into every directory under
// root, root included, unless that file already exists. Existing markers
// are never overwritten. It returns the number of files written.
func InjectMarkers(root, name string, content []byte) (int, error) {
	if !IsDir(root) {
		return 0, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	written := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		marker := filepath.Join(path, name)
		if Exists(marker) {
			return nil
		}
		if err := os.WriteFile(marker, content, 0o644); err != nil {
			return fmt.Errorf("write marker %q: %w", marker, err)
		}
		written++
		return nil
	})
	if err != nil {
		return written, err
	}
	return written, nil
}

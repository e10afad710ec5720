package prefixer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dartmoon/prestashop-build-tools/internal/fsutil"
)

// swap replaces vendor packages with their prefixed copies, keeping the
// originals in a backup directory until the run succeeds.
type swap struct {
	*plan
	logger *slog.Logger

	backedUp []string // Packages moved into the backup directory.
	placed   []string // Packages copied into the vendor directory.
}

func (s *swap) apply(packages []string, moveVendor bool) error {
	if err := fsutil.Recreate(s.backupDir); err != nil {
		return err
	}

	for _, pkg := range packages {
		original := filepath.Join(s.vendorDir, filepath.FromSlash(pkg))
		if fsutil.Exists(original) {
			if err := fsutil.Move(original, filepath.Join(s.backupDir, filepath.FromSlash(pkg))); err != nil {
				return fmt.Errorf("back up %s: %w", pkg, err)
			}
			s.backedUp = append(s.backedUp, pkg)
		}
	}

	if !moveVendor {
		return nil
	}

	for _, pkg := range packages {
		src := filepath.Join(s.prefixedDir, filepath.FromSlash(pkg))
		dst := filepath.Join(s.vendorDir, filepath.FromSlash(pkg))
		s.placed = append(s.placed, pkg)
		if err := fsutil.CopyDir(src, dst); err != nil {
			return fmt.Errorf("copy %s: %w", pkg, err)
		}
		s.logger.Debug("package swapped", "package", pkg)
	}
	return nil
}

// restore undoes apply. It is safe to call after a partial apply.
func (s *swap) restore() error {
	var errs []error
	for _, pkg := range s.placed {
		if err := os.RemoveAll(filepath.Join(s.vendorDir, filepath.FromSlash(pkg))); err != nil {
			errs = append(errs, err)
		}
	}
	for _, pkg := range s.backedUp {
		dst := filepath.Join(s.vendorDir, filepath.FromSlash(pkg))
		if err := os.RemoveAll(dst); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := fsutil.Move(filepath.Join(s.backupDir, filepath.FromSlash(pkg)), dst); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		_ = os.RemoveAll(s.backupDir)
	}
	return errors.Join(errs...)
}

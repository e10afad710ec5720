package fsutil

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// Lock is an exclusive advisory lock on a file next to the working directory.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the lock at path without blocking. It returns ErrLocked
// when another process already holds it.
func AcquireLock(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %q: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %q: %w", l.fl.Path(), err)
	}
	if err := os.Remove(l.fl.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock %q: %w", l.fl.Path(), err)
	}
	return nil
}

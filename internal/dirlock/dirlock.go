// Package dirlock guards a data directory against concurrent processes
// with an advisory lock on a well-known file inside it. Two processes
// opening the same directory would race each other's whole-file saves,
// so the second opener is refused outright.
package dirlock

import (
	"fmt"
	"os"
	"path/filepath"
)

const lockFileName = ".lock"

// Lock holds the advisory lock for as long as the acquiring process
// keeps it.
type Lock struct {
	f *os.File
}

// Acquire takes an exclusive lock on dir, failing fast if another
// process already holds it.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, lockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := flock(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("directory %s is in use by another process: %w", dir, err)
	}

	return &Lock{f: f}, nil
}

// Release drops the lock. Safe to call on nil or twice.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}

	err := funlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}

	l.f = nil

	return err
}

package persistence

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileWrite names one file of an atomic multi-file write and the
// function that produces its contents.
type FileWrite struct {
	Name  string
	Write func(w io.Writer) error
}

// AtomicWriteFiles writes a set of files into dir so that readers see
// either all of them replaced or none of them. Each file is staged as a
// temp file in the same directory, synced and then renamed over its
// final name; the staged temps are removed if any step fails. Writes
// run in slice order, so a later file may depend on state captured
// while an earlier one was written.
func AtomicWriteFiles(dir string, files []FileWrite) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	type staged struct {
		finalPath string
		tempPath  string
	}
	var temps []staged

	// Clean up staged files on any failure before the rename phase.
	defer func() {
		for _, s := range temps {
			os.Remove(s.tempPath)
		}
	}()

	for _, f := range files {
		tmp, err := os.CreateTemp(dir, f.Name+".tmp-*")
		if err != nil {
			return fmt.Errorf("failed to create temp file for %s: %w", f.Name, err)
		}

		if err := f.Write(tmp); err != nil {
			tmp.Close()
			temps = append(temps, staged{tempPath: tmp.Name()})
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}

		if err := tmp.Sync(); err != nil {
			tmp.Close()
			temps = append(temps, staged{tempPath: tmp.Name()})
			return fmt.Errorf("failed to sync %s: %w", f.Name, err)
		}

		if err := tmp.Close(); err != nil {
			temps = append(temps, staged{tempPath: tmp.Name()})
			return fmt.Errorf("failed to close %s: %w", f.Name, err)
		}

		temps = append(temps, staged{
			finalPath: filepath.Join(dir, f.Name),
			tempPath:  tmp.Name(),
		})
	}

	for _, s := range temps {
		if err := os.Rename(s.tempPath, s.finalPath); err != nil {
			return fmt.Errorf("failed to rename %s: %w", s.finalPath, err)
		}
	}
	temps = nil

	// Best effort: fsync the directory so the renames survive a crash.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	return nil
}

// Package writer exposes sinks for encoded term files.
package writer

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives one complete encoded file.
type Sink interface {
	WriteTerms(buf []byte) error
}

// FileWriter replaces the file at Path atomically: readers see either the
// previous content or all of buf.
type FileWriter struct {
	Path string
	Perm os.FileMode // 0 means 0o644
}

// WriteTerms stages buf in a hidden sibling of Path, syncs it and renames
// it into place.
func (w *FileWriter) WriteTerms(buf []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(w.Path), "."+filepath.Base(w.Path)+".*")
	if err != nil {
		return fmt.Errorf("writer: stage %s: %w", w.Path, err)
	}
	staged := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(staged)
		}
	}()

	if _, err = tmp.Write(buf); err != nil {
		return fmt.Errorf("writer: write %s: %w", staged, err)
	}
	if err = tmp.Chmod(cmp.Or(w.Perm, 0o644)); err != nil {
		return fmt.Errorf("writer: chmod %s: %w", staged, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("writer: sync %s: %w", staged, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writer: close %s: %w", staged, err)
	}
	if err = os.Rename(staged, w.Path); err != nil {
		return fmt.Errorf("writer: rename to %s: %w", w.Path, err)
	}
	return nil
}

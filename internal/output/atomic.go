package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes path through a temporary file in the same
// directory and renames it into place once write succeeds. On any error the
// temporary file is removed and an existing file at path is left untouched.
// A replaced file keeps its permissions; new files get 0644.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	mode := os.FileMode(0o644)
	if info, serr := os.Stat(path); serr == nil {
		mode = info.Mode().Perm()
	}
	if err = f.Chmod(mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// RewriteTable loads the report at path, lets fn modify it, and atomically
// replaces the file with the result, dropping rows fn made identical. The
// file is not touched when fn fails.
func RewriteTable(path string, fn func(t *Table) error) error {
	t, err := ReadTable(path)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		return err
	}
	t.Rows = Dedupe(t.Rows)
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := t.WriteTo(w)
		return err
	})
}

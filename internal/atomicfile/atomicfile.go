// Package atomicfile writes files through a temp file in the destination
// directory and a rename, so readers never observe a partial file.
package atomicfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Write creates dst's directory, streams fn's output into a temp file next
// to dst and renames it into place. It returns the size of the written file.
// On any error the temp file is removed and dst is left untouched.
func Write(dst string, fn func(w io.Writer) error) (int64, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+"-tmp-*")
	if err != nil {
		return 0, fmt.Errorf("tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (int64, error) {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}

	if err := fn(tmp); err != nil {
		return fail(err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("rename: %w", err)
	}
	return info.Size(), nil
}

// WriteFile atomically replaces dst with data.
func WriteFile(dst string, data []byte) error {
	_, err := Write(dst, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	return err
}

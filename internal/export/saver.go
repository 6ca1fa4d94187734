// Package export saves finished memes to the download directory.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxDuplicates bounds the "name (n).ext" search.
const maxDuplicates = 1000

// DiskSaver writes files into Dir without overwriting existing ones: a taken
// name becomes "name (1).ext", "name (2).ext" and so on.
type DiskSaver struct {
	Dir string
}

func NewDiskSaver(dir string) *DiskSaver { return &DiskSaver{Dir: dir} }

// Save writes data under filename and returns the path actually used.
func (s *DiskSaver) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return "", errors.New("export: filename required")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("export: mkdir %s: %w", s.Dir, err)
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for n := 0; n < maxDuplicates; n++ {
		name := filename
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(s.Dir, name)
		ok, err := writeNew(path, data)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("export: too many copies of %s in %s", filename, s.Dir)
}

// writeNew writes to a temp file and links it into place only if path does
// not exist yet. It reports false when the name is taken.
func writeNew(path string, data []byte) (bool, error) {
	if _, err := os.Lstat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jaskmeme-*.tmp")
	if err != nil {
		return false, fmt.Errorf("export: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("export: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("export: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("export: close: %w", err)
	}
	if err := os.Link(tmpName, path); err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		// filesystems without hard links
		if _, statErr := os.Lstat(path); statErr == nil {
			return false, nil
		}
		if err := os.Rename(tmpName, path); err != nil {
			return false, fmt.Errorf("export: %w", err)
		}
	}
	return true, nil
}

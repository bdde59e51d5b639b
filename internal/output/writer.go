// Package output writes generated artifacts into the output directory.
package output

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"gocxx/internal/errors"
)

// Writer places files in one directory and records what it wrote.
type Writer struct {
	dir     string
	written []string
	skipped []string
	log     *zap.SugaredLogger
}

// NewWriter creates dir if needed.
func NewWriter(dir string, log *zap.SugaredLogger) (*Writer, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, errors.Wrapf(err, "create output directory %s", dir)
	}

	return &Writer{dir: dir, log: log}, nil
}

// Dir is the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path joins name to the output directory.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Write creates or truncates name.
func (w *Writer) Write(name string, content []byte) error {
	path := w.Path(name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	w.written = append(w.written, name)
	w.log.Debugw("wrote file", "path", path, "bytes", len(content))
	return nil
}

// WriteExclusive creates name only if it does not exist yet. Files shared
// between modules are written by whichever run gets there first; an
// existing file is silently kept. Reports whether the file was written.
func (w *Writer) WriteExclusive(name string, content []byte) (bool, error) {
	path := w.Path(name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		w.skipped = append(w.skipped, name)
		w.log.Debugw("kept existing file", "path", path)
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "create %s", path)
	}

	_, err = f.Write(content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return false, errors.Wrapf(err, "write %s", path)
	}

	w.written = append(w.written, name)
	w.log.Debugw("created file", "path", path, "bytes", len(content))
	return true, nil
}

// Written returns the names written so far, sorted.
func (w *Writer) Written() []string {
	out := append([]string(nil), w.written...)
	sort.Strings(out)
	return out
}

// Skipped returns the shared files that already existed, sorted.
func (w *Writer) Skipped() []string {
	out := append([]string(nil), w.skipped...)
	sort.Strings(out)
	return out
}

// ClearDirectory removes everything inside path, keeping path itself.
// A missing directory is not an error.
func ClearDirectory(path string) error {
	directory, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer directory.Close()

	names, err := directory.Readdirnames(-1)
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "list %s", path)
	}

	for _, name := range names {
		if err := os.RemoveAll(filepath.Join(path, name)); err != nil {
			return errors.Wrapf(err, "remove %s", name)
		}
	}
	return nil
}

// IsEmpty reports whether path has no entries. A missing directory is empty.
func IsEmpty(path string) (bool, error) {
	directory, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "open %s", path)
	}
	defer directory.Close()

	_, err = directory.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "list %s", path)
	}
	return false, nil
}

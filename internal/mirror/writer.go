package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// WriteError is a disk failure for one resource. It never aborts the
// crawl; the engine records it and continues with other resources.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// WriterOptions control overwrite behavior for existing files.
type WriterOptions struct {
	AllowOverwrite   bool
	MentionOverwrite bool
}

// Writer persists rewritten resources under the mirror root. Files are
// written to a temporary name and renamed into place, so a cancelled
// crawl never leaves a partially written file behind.
type Writer struct {
	root   string
	opts   WriterOptions
	logger *zap.Logger
}

// NewWriter creates the mirror root directory. Failure here is fatal
// for the whole crawl: nothing has been fetched yet and nothing can be
// stored.
func NewWriter(root string, opts WriterOptions, logger *zap.Logger) (*Writer, error) {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("mirror root %s exists and is not a directory", root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating mirror root: %w", err)
	}
	return &Writer{root: root, opts: opts, logger: logger}, nil
}

// Root returns the mirror root directory.
func (w *Writer) Root() string { return w.root }

// Write stores data at the slash-separated localPath below the mirror
// root, creating parent directories as needed. It reports whether a
// file was actually written; an existing file with overwriting
// disabled is left alone without error.
func (w *Writer) Write(localPath string, data []byte) (bool, error) {
	full := filepath.Join(w.root, filepath.FromSlash(localPath))

	rel, err := filepath.Rel(w.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, &WriteError{Path: localPath, Err: fmt.Errorf("escapes mirror root")}
	}

	if _, err := os.Stat(full); err == nil {
		if !w.opts.AllowOverwrite {
			w.logger.Info("file exists, not overwriting", zap.String("path", full))
			return false, nil
		}
		if w.opts.MentionOverwrite {
			w.logger.Info("overwriting existing file", zap.String("path", full))
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return false, &WriteError{Path: localPath, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".mirror-*")
	if err != nil {
		return false, &WriteError{Path: localPath, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, &WriteError{Path: localPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, &WriteError{Path: localPath, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return false, &WriteError{Path: localPath, Err: err}
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return false, &WriteError{Path: localPath, Err: err}
	}

	w.logger.Debug("wrote file",
		zap.String("path", full),
		zap.Int("bytes", len(data)))
	return true, nil
}

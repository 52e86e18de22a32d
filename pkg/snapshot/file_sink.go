package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// FileSink writes the document to a local file, creating parent directories.
type FileSink struct {
	path string
}

// NewFileSink returns a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Location() string { return s.path }

// Write creates missing parent directories and replaces the file atomically.
func (s *FileSink) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Join(ErrFailedToWrite, err)
		}
	}

	// Replaced atomically via a sibling temp file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Join(ErrFailedToWrite, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Join(ErrFailedToWrite, err)
	}
	return nil
}

// Package export delivers consent records and event logs to their destinations.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink receives a finished artifact and its suggested file name.
type Sink interface {
	Deliver(ctx context.Context, name string, data []byte) error
}

// DirSink writes artifacts as files into Dir.
type DirSink struct {
	Dir string
}

// Deliver writes data to Dir/name through a temp file so readers never see a partial file.
func (s DirSink) Deliver(_ context.Context, name string, data []byte) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid export name %q", name)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(s.Dir, "export-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// WriterSink copies artifacts to W, ignoring names.
type WriterSink struct {
	W io.Writer
}

// Deliver writes data to the wrapped writer.
func (s WriterSink) Deliver(_ context.Context, _ string, data []byte) error {
	if _, err := s.W.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

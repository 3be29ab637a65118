package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// MarkerFile is a filesystem sentinel whose existence records completion
// of a one-time step. Its content is optional.
type MarkerFile struct {
	path string
	log  *slog.Logger
}

// NewMarkerFile returns a marker at path. Nothing is touched on disk until
// Write, Touch or Remove is called.
func NewMarkerFile(path string, log *slog.Logger) *MarkerFile {
	return &MarkerFile{path: path, log: log}
}

// Path returns the location of the marker on disk.
func (m *MarkerFile) Path() string {
	return m.path
}

// Exists reports whether the marker is present. It returns an error when
// the state of the marker cannot be determined, for example when the
// parent directory is not accessible.
func (m *MarkerFile) Exists() (bool, error) {
	_, err := os.Stat(m.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	m.log.Warn("Could not stat marker file", "err", err, slog.String("path", m.path))
	return false, fmt.Errorf("failed to stat marker %s: %w", m.path, err)
}

// Read returns the marker content.
func (m *MarkerFile) Read() ([]byte, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read marker %s: %w", m.path, err)
	}
	return data, nil
}

// Write atomically replaces the marker content. The parent directory is
// created if missing.
func (m *MarkerFile) Write(data []byte) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary marker: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write marker: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close marker: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set marker permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("failed to move marker into place: %w", err)
	}

	m.log.Debug("Wrote marker file", slog.String("path", m.path), slog.Int("size", len(data)))
	return nil
}

// Touch creates an empty marker.
func (m *MarkerFile) Touch() error {
	return m.Write(nil)
}

// Remove deletes the marker. A missing marker is not an error.
func (m *MarkerFile) Remove() error {
	err := os.Remove(m.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove marker %s: %w", m.path, err)
	}
	return nil
}

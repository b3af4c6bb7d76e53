// Package storage provides local filesystem storage for uploaded banner images
package storage

import (
	"io"
	"os"
	"path/filepath"
)

// localStorage implements Storage using the local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath string) *localStorage {
	return &localStorage{
		basePath: basePath,
	}
}

// generatePath returns the full on-disk path for a stored file.
// The filename is always flattened to its base name so callers cannot
// escape the uploads directory.
func (s *localStorage) generatePath(filename string) string {
	return filepath.Join(s.basePath, filepath.Base(filename))
}

// Create creates a new file and returns a WriteCloser
func (s *localStorage) Create(filename string) (io.WriteCloser, error) {
	path := s.generatePath(filename)

	// Ensure the uploads directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	return os.Create(path)
}

// Open opens a stored file for reading
func (s *localStorage) Open(filename string) (io.ReadCloser, error) {
	return os.Open(s.generatePath(filename))
}

// Delete removes a stored file
func (s *localStorage) Delete(filename string) error {
	return os.Remove(s.generatePath(filename))
}

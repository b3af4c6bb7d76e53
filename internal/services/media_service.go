package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mehedimath/backend/internal/storage"
)

// maxUploadSize is the banner image size limit
const maxUploadSize = 5 * 1024 * 1024 // 5MB

// allowedExtensions maps the accepted image extensions to their content types
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Storage is the interface for banner image file storage
type Storage interface {
	// Method Create creates a new file and returns a writer for its content.
	Create(filename string) (io.WriteCloser, error)
	// Method Open opens a stored file for reading.
	Open(filename string) (io.ReadCloser, error)
	// Method Delete removes a stored file.
	Delete(filename string) error
}

// mediaService implements banner image upload and retrieval
type mediaService struct {
	storage Storage
	baseURL string
}

// NewMediaService creates a new media service. baseURL is the public path
// prefix under which uploaded files are served.
func NewMediaService(st Storage, baseURL string) *mediaService {
	return &mediaService{
		storage: st,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload validates and stores an uploaded image and returns its public URL.
//
// The original filename only contributes its extension; the stored name is a
// fresh UUID so uploads can never collide or overwrite each other.
func (s *mediaService) Upload(ctx context.Context, reader io.Reader, filename, contentType string, size int64) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("file must be an image")
	}

	if size > maxUploadSize {
		return "", fmt.Errorf("file size too large (max 5MB)")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("invalid file type")
	}

	storedName := storage.GenerateFileName(ext)

	writer, err := s.storage.Create(storedName)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(writer, io.LimitReader(reader, maxUploadSize)); err != nil {
		writer.Close()
		s.storage.Delete(storedName)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return s.baseURL + "/" + storedName, nil
}

// GetFileReader opens a stored image for serving and returns its content type.
// Filenames outside the extension allow-list are rejected before touching disk.
func (s *mediaService) GetFileReader(filename string) (io.ReadCloser, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return nil, "", fmt.Errorf("invalid file type")
	}

	reader, err := s.storage.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("file not found")
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	return reader, contentType, nil
}

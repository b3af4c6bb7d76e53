package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MediaService is the interface that wraps methods for file upload and serving
type MediaService interface {
	// Method Upload validates and stores an uploaded image, returning
	// the public URL of the stored file.
	Upload(ctx context.Context, file io.Reader, filename, contentType string, size int64) (string, error)
	// Method GetFileReader opens a previously stored file for reading
	// and reports its content type.
	GetFileReader(filename string) (io.ReadCloser, string, error)
}

// MediaHandler handles file upload and serving HTTP requests
type MediaHandler struct {
	BaseHandler
	mediaService MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		mediaService: mediaService,
	}
}

// RegisterPublicRoutes registers the public file serving route
func (h *MediaHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/uploads/{filename}", h.Serve)
}

// RegisterAdminRoutes registers the admin-only upload route
func (h *MediaHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/upload", h.Upload)
}

// Upload handles POST /upload
// @Summary Upload image
// @Description Upload a course banner image (max 5MB, image types only)
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} map[string]string "URL of the stored file"
// @Failure 400 {object} map[string]string "Invalid file type or size"
// @Router /upload [post]
// @Security SessionCookie
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	url, err := h.mediaService.Upload(r.Context(), file, header.Filename,
		header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		h.Logger.Info("upload rejected",
			zap.String("filename", header.Filename), zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.Logger.Info("file uploaded",
		zap.String("filename", header.Filename), zap.String("url", url))
	h.RespondJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// Serve handles GET /uploads/{filename}
// @Summary Serve uploaded file
// @Description Stream a previously uploaded image
// @Tags media
// @Produce image/*
// @Param filename path string true "Stored file name"
// @Success 200 {file} binary "The file"
// @Failure 404 {object} map[string]string "File not found"
// @Router /uploads/{filename} [get]
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	reader, contentType, err := h.mediaService.GetFileReader(filename)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		h.Logger.Warn("failed to stream file",
			zap.String("filename", filename), zap.Error(err))
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mehedimath/backend/internal/auth"
	"github.com/mehedimath/backend/internal/models"
	"go.uber.org/zap"
)

// AccessRequestService is the interface that wraps methods for access request business logic
type AccessRequestService interface {
	// Method Create files a new access request for the given user and course.
	//
	// A user may hold at most one request per course. If a request already
	// exists the "request already exists" error will be returned.
	Create(ctx context.Context, userID int, req *models.CreateAccessRequestRequest) (*models.AccessRequest, error)
	// Method GetAll returns every access request with user and course attached.
	GetAll(ctx context.Context) ([]models.AccessRequest, error)
	// Method GetByUserID returns the requests filed by the given user.
	GetByUserID(ctx context.Context, userID int) ([]models.AccessRequest, error)
	// Method GetByCourseID returns the requests filed for the given course.
	GetByCourseID(ctx context.Context, courseID int) ([]models.AccessRequest, error)
	// Method Transition moves a request to a new status, enforcing the
	// allowed transitions and the admin note requirement.
	Transition(ctx context.Context, id int, req *models.UpdateAccessRequestRequest) (*models.AccessRequest, error)
}

// AccessRequestHandler handles access request HTTP requests
type AccessRequestHandler struct {
	BaseHandler
	requestService AccessRequestService
}

// NewAccessRequestHandler creates a new access request handler
func NewAccessRequestHandler(requestService AccessRequestService, logger *zap.Logger) *AccessRequestHandler {
	return &AccessRequestHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		requestService: requestService,
	}
}

// RegisterRoutes registers the session-gated access request routes
func (h *AccessRequestHandler) RegisterRoutes(r chi.Router) {
	r.Post("/access-requests", h.Create)
	r.Get("/access-requests/user", h.ListMine)
}

// RegisterAdminRoutes registers the admin-only access request routes
func (h *AccessRequestHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/access-requests", h.List)
	r.Patch("/access-requests/{id}", h.Transition)
}

// Create handles POST /access-requests
// @Summary Request course access
// @Description File an access request for a course. The request starts in PENDING.
// @Tags access-requests
// @Accept json
// @Produce json
// @Param request body models.CreateAccessRequestRequest true "Access request"
// @Success 201 {object} map[string]any "Created request"
// @Failure 400 {object} map[string]string "Invalid course id"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 409 {object} map[string]string "Request already exists"
// @Router /access-requests [post]
// @Security SessionCookie
func (h *AccessRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.GetIdentity(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.CreateAccessRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.requestService.Create(r.Context(), identity.UserID, &req)
	if err != nil {
		h.Logger.Info("failed to create access request",
			zap.Int("userId", identity.UserID), zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.Logger.Info("access request created",
		zap.Int("id", request.ID), zap.Int("userId", identity.UserID))
	h.RespondJSON(w, http.StatusCreated, map[string]any{"accessRequest": request})
}

// ListMine handles GET /access-requests/user
// @Summary List own access requests
// @Description List the caller's access requests across all courses
// @Tags access-requests
// @Produce json
// @Success 200 {object} map[string]any "The caller's requests"
// @Router /access-requests/user [get]
// @Security SessionCookie
func (h *AccessRequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.GetIdentity(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	requests, err := h.requestService.GetByUserID(r.Context(), identity.UserID)
	if err != nil {
		h.Logger.Error("failed to list access requests", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// List handles GET /access-requests
// @Summary List access requests
// @Description List all access requests, optionally filtered by user or course
// @Tags access-requests
// @Produce json
// @Param userId query int false "Filter by user id"
// @Param courseId query int false "Filter by course id"
// @Success 200 {object} map[string]any "Matching requests"
// @Router /access-requests [get]
// @Security SessionCookie
func (h *AccessRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		requests []models.AccessRequest
		err      error
	)

	switch {
	case r.URL.Query().Get("userId") != "":
		userID, convErr := strconv.Atoi(r.URL.Query().Get("userId"))
		if convErr != nil || userID <= 0 {
			h.RespondError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		requests, err = h.requestService.GetByUserID(r.Context(), userID)
	case r.URL.Query().Get("courseId") != "":
		courseID, convErr := strconv.Atoi(r.URL.Query().Get("courseId"))
		if convErr != nil || courseID <= 0 {
			h.RespondError(w, http.StatusBadRequest, "invalid course id")
			return
		}
		requests, err = h.requestService.GetByCourseID(r.Context(), courseID)
	default:
		requests, err = h.requestService.GetAll(r.Context())
	}

	if err != nil {
		h.Logger.Error("failed to list access requests", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// Transition handles PATCH /access-requests/{id}
// @Summary Change request status
// @Description Move an access request to a new status. Rejecting or suspending requires an admin note.
// @Tags access-requests
// @Accept json
// @Produce json
// @Param id path int true "Access request ID"
// @Param request body models.UpdateAccessRequestRequest true "New status and optional note"
// @Success 200 {object} map[string]any "Updated request"
// @Failure 400 {object} map[string]string "Invalid status transition"
// @Failure 404 {object} map[string]string "Access request not found"
// @Router /access-requests/{id} [patch]
// @Security SessionCookie
func (h *AccessRequestHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req models.UpdateAccessRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.requestService.Transition(r.Context(), id, &req)
	if err != nil {
		h.Logger.Info("failed to transition access request",
			zap.Int("id", id), zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"accessRequest": request})
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mehedimath/backend/internal/models"
	"go.uber.org/zap"
)

// CourseService is the interface that wraps methods for course business logic
type CourseService interface {
	// Method List returns a page of courses ordered by display order,
	// together with the pagination metadata. Pages are 1-based.
	List(ctx context.Context, page, limit int) (*models.CourseListResponse, error)
	// Method Get returns the course with the given id.
	Get(ctx context.Context, id int) (*models.Course, error)
	// Method Create creates a new course at the end of the display order.
	Create(ctx context.Context, req *models.CreateCourseRequest) (*models.Course, error)
	// Method Update applies a partial update to the course. Only non-nil
	// fields of the request are changed.
	Update(ctx context.Context, id int, req *models.UpdateCourseRequest) (*models.Course, error)
	// Method Delete removes the course with the given id.
	Delete(ctx context.Context, id int) error
	// Method Reorder applies a new display order atomically.
	Reorder(ctx context.Context, req *models.ReorderRequest) error
}

// CourseHandler handles course-related HTTP requests
type CourseHandler struct {
	BaseHandler
	courseService CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService CourseService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		courseService: courseService,
	}
}

// RegisterPublicRoutes registers the routes available without a session
func (h *CourseHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/courses", h.List)
	r.Get("/courses/{id}", h.Get)
}

// RegisterAdminRoutes registers the admin-only course routes
func (h *CourseHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/courses", h.Create)
	r.Patch("/courses/reorder", h.Reorder)
	r.Patch("/courses/{id}", h.Update)
	r.Delete("/courses/{id}", h.Delete)
}

// List handles GET /courses
// @Summary List courses
// @Description Get a paginated list of courses ordered by display order
// @Tags courses
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Success 200 {object} models.CourseListResponse "Page of courses"
// @Router /courses [get]
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := h.courseService.List(r.Context(), page, limit)
	if err != nil {
		h.Logger.Error("failed to list courses", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// Get handles GET /courses/{id}
// @Summary Get course
// @Description Get a single course by id
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} map[string]any "The course"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	course, err := h.courseService.Get(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"course": course})
}

// Create handles POST /courses
// @Summary Create course
// @Description Create a new course. The course is placed at the end of the display order.
// @Tags courses
// @Accept json
// @Produce json
// @Param request body models.CreateCourseRequest true "Course to create"
// @Success 201 {object} map[string]any "Created course"
// @Failure 400 {object} map[string]string "Missing required fields"
// @Router /courses [post]
// @Security SessionCookie
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.courseService.Create(r.Context(), &req)
	if err != nil {
		h.Logger.Info("failed to create course", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.Logger.Info("course created", zap.Int("id", course.ID), zap.String("title", course.Title))
	h.RespondJSON(w, http.StatusCreated, map[string]any{"course": course})
}

// Update handles PATCH /courses/{id}
// @Summary Update course
// @Description Partially update a course. Omitted fields are left unchanged.
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body models.UpdateCourseRequest true "Fields to update"
// @Success 200 {object} map[string]any "Updated course"
// @Failure 400 {object} map[string]string "No fields to update"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{id} [patch]
// @Security SessionCookie
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	var req models.UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.courseService.Update(r.Context(), id, &req)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"course": course})
}

// Delete handles DELETE /courses/{id}
// @Summary Delete course
// @Description Remove a course. Access requests pointing at it are kept and surface a null course.
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} map[string]string "Course deleted"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{id} [delete]
// @Security SessionCookie
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	if err := h.courseService.Delete(r.Context(), id); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.Logger.Info("course deleted", zap.Int("id", id))
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "course deleted"})
}

// Reorder handles PATCH /courses/reorder
// @Summary Reorder courses
// @Description Apply a new display order. All updates succeed or none do.
// @Tags courses
// @Accept json
// @Produce json
// @Param request body models.ReorderRequest true "New course order"
// @Success 200 {object} map[string]string "Order updated"
// @Failure 400 {object} map[string]string "Invalid order"
// @Router /courses/reorder [patch]
// @Security SessionCookie
func (h *CourseHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req models.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.courseService.Reorder(r.Context(), &req); err != nil {
		h.Logger.Info("failed to reorder courses", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "course order updated"})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mehedimath/backend/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps administrative operations
type AdminService interface {
	// Method GetAllUsers returns every registered user with their
	// access request counts.
	GetAllUsers(ctx context.Context) ([]models.UserListItem, error)
	// Method RecreateAdmin drops and re-creates the configured admin
	// account from the environment credentials.
	RecreateAdmin(ctx context.Context) (*models.User, error)
}

// AdminHandler handles administrative HTTP requests
type AdminHandler struct {
	BaseHandler
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers the admin-only routes
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/users", h.ListUsers)
		r.Post("/recreate-admin", h.RecreateAdmin)
	})
}

// ListUsers handles GET /admin/users
// @Summary List users
// @Description List all registered users with their access request counts
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any "All users"
// @Router /admin/users [get]
// @Security SessionCookie
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.GetAllUsers(r.Context())
	if err != nil {
		h.Logger.Error("failed to list users", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// RecreateAdmin handles POST /admin/recreate-admin
// @Summary Recreate admin account
// @Description Delete and re-create the admin account from the configured credentials
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any "Recreated admin"
// @Router /admin/recreate-admin [post]
// @Security SessionCookie
func (h *AdminHandler) RecreateAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.adminService.RecreateAdmin(r.Context())
	if err != nil {
		h.Logger.Error("failed to recreate admin", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.Logger.Info("admin account recreated", zap.String("email", admin.Email))
	h.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "admin account recreated",
		"user":    admin,
	})
}

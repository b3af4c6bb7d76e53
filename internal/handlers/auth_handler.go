package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mehedimath/backend/internal/auth"
	"github.com/mehedimath/backend/internal/models"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic
type AuthService interface {
	// Method Signup creates a new user account and opens a session.
	//
	// "req" parameter contains email, password and optional display name.
	//
	// If the credentials are invalid or the email is taken, the error will be
	// returned together with "nil" identity and an empty token.
	Signup(ctx context.Context, req *models.SignupRequest) (*models.Identity, string, error)
	// Method Login authenticates a user and opens a session.
	//
	// If the credentials do not match, the error will be returned together with
	// "nil" identity and an empty token.
	Login(ctx context.Context, req *models.LoginRequest) (*models.Identity, string, error)
	// Method Logout deletes the session for the given token.
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService   AuthService
	sessionExpiry time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger, sessionExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		authService:   authService,
		sessionExpiry: sessionExpiry,
	}
}

// RegisterRoutes registers the public auth routes. The /auth/me and
// /auth/logout routes are registered separately behind the session middleware.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})
}

// RegisterProtectedRoutes registers the session-gated auth routes
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
	r.Post("/auth/logout", h.Logout)
}

// setSessionCookie sets the HTTP-only session cookie
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionExpiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Signup handles POST /auth/signup
// @Summary Sign up
// @Description Create a new user account. Opens a session and sets the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Signup request"
// @Success 201 {object} map[string]any "Account created"
// @Failure 400 {object} map[string]string "Invalid email or password"
// @Failure 409 {object} map[string]string "User already exists"
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, token, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		h.Logger.Info("signup failed", zap.Error(err))
		h.RespondServiceError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	h.RespondJSON(w, http.StatusCreated, map[string]any{"user": identity})
}

// Login handles POST /auth/login
// @Summary Log in
// @Description Authenticate with email and password. Opens a session and sets the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} map[string]any "Login successful"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.Logger.Info("login failed", zap.Error(err))
		h.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	h.setSessionCookie(w, token)
	h.RespondJSON(w, http.StatusOK, map[string]any{"user": identity})
}

// Me handles GET /auth/me
// @Summary Current identity
// @Description Return the identity resolved from the session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]any "Resolved identity"
// @Failure 401 {object} map[string]string "No valid session"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.GetIdentity(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{"user": identity})
}

// Logout handles POST /auth/logout
// @Summary Log out
// @Description Delete the caller's session and clear the session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logged out"
// @Failure 401 {object} map[string]string "No valid session"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			h.Logger.Warn("failed to delete session", zap.Error(err))
		}
	}

	h.clearSessionCookie(w)
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

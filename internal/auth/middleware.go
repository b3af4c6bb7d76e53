// Package auth implements the session identity gate: middleware that resolves
// the opaque session cookie to a user identity and role-checks admin routes.
package auth

import (
	"context"
	"net/http"

	"github.com/mehedimath/backend/internal/models"
)

// SessionCookieName is the cookie carrying the opaque session token
const SessionCookieName = "session_token"

type contextKey string

const identityKey contextKey = "identity"

// SessionResolver resolves an opaque session token to a caller identity.
// An unknown or expired token yields an error.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.Identity, error)
}

// Middleware resolves the session cookie and stores the identity in the
// request context. Requests without a resolvable session get 401.
func Middleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			identity, err := resolver.ResolveSession(r.Context(), cookie.Value)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects authenticated callers whose role is not ADMIN.
// It must be mounted after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentity(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		if !identity.IsAdmin() {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetIdentity retrieves the resolved identity from context
func GetIdentity(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*models.Identity)
	return identity, ok
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

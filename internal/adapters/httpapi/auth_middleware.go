package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/vitalcoach/coach-api/internal/domain"
)

// TokenVerifier returns the user id a bearer token was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

func isPublic(path string) bool {
	return path == "/healthz" || path == "/metrics"
}

// NewJWTAuthMiddleware enforces Authorization: Bearer <JWT>. The token subject becomes the user id.
func NewJWTAuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authz := r.Header.Get("Authorization")
			if authz == "" {
				writeOASError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing Authorization header", nil)
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				writeOASError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "malformed Authorization header", nil)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if raw == "" {
				writeOASError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
				return
			}

			sub, err := v.Verify(r.Context(), raw)
			if err != nil {
				writeOASError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), domain.UserID(sub))))
		})
	}
}

// NewHeaderAuthMiddleware trusts a user id set by an authenticating gateway in front of the API.
func NewHeaderAuthMiddleware(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			id := strings.TrimSpace(r.Header.Get(header))
			if id == "" {
				writeOASError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+header+" header", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), domain.UserID(id))))
		})
	}
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It accepts an explicit user id via X-Debug-Subject and falls back to defaultSubject.
// Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" {
				writeOASError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject (set X-Debug-Subject)", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), domain.UserID(sub))))
		})
	}
}

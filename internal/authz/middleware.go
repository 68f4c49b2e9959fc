package authz

import (
	"log/slog"
	"net/http"

	"github.com/meridian-mfb/meridian-mfb/internal/platform/httpx"
)

// Middleware gates routes on the authenticated principal's permissions.
type Middleware struct {
	Gateway *Gateway
	Logger  *slog.Logger
}

// RequireModule ensures the principal may perform action within module.
func (m Middleware) RequireModule(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				httpx.Unauthorized(w, "Authentication required.")
				return
			}
			if !m.Gateway.Allowed(p, module, action) {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.Int64("user_id", p.UserID),
						slog.String("module", module),
						slog.String("action", action))
				}
				httpx.Forbidden(w, "You are not allowed to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission ensures the principal holds the exact named permission.
func (m Middleware) RequirePermission(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				httpx.Unauthorized(w, "Authentication required.")
				return
			}
			if !p.IsSuperAdmin() && !m.Gateway.HasPermission(p, name) {
				httpx.Forbidden(w, "You are not allowed to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

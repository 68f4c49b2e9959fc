package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/httpx"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// Authenticator resolves the bearer token on incoming requests into a
// principal stored on the context. Routes behind it can rely on
// authz.PrincipalFromContext returning a non-nil value.
type Authenticator struct {
	Issuer  *TokenIssuer
	Gateway *authz.Gateway
	Logger  *slog.Logger
}

// Middleware authenticates the request or rejects it with 4010.
func (a Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.Unauthorized(w, "Authentication required.")
			return
		}
		userID, err := a.Issuer.Verify(token)
		if err != nil {
			httpx.Unauthorized(w, "Invalid or expired token.")
			return
		}
		principal, err := a.Gateway.Principal(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.Unauthorized(w, "Invalid or expired token.")
				return
			}
			if a.Logger != nil {
				a.Logger.Error("load principal", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		ctx := authz.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/httpx"
)

// Handler wires the authentication endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	issuer    *TokenIssuer
	gateway   *authz.Gateway
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, issuer *TokenIssuer, gateway *authz.Gateway) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		issuer:    issuer,
		gateway:   gateway,
		validator: validator.New(),
	}
}

// MountRoutes registers the unauthenticated auth routes. Login carries its
// own tighter rate limit on top of the global one to slow brute-force
// probing.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/login", h.handleLogin)
	})
}

// MountSessionRoutes registers the routes that need an authenticated
// principal.
func (h *Handler) MountSessionRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fieldErr := range err.(validator.ValidationErrors) {
			fields[fieldErr.Field()] = "This field is required."
		}
		httpx.BadRequest(w, "Validation failed.", fields)
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		var loginErr *LoginError
		if errors.As(err, &loginErr) {
			if loginErr.Locked {
				httpx.Locked(w, loginErr.Message)
				return
			}
			httpx.Unauthorized(w, loginErr.Message)
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	token, err := h.issuer.Issue(account)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.OK(w, "Login successful.", loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.issuer.TTL().Seconds()),
		User: userResponse{
			ID:       account.ID,
			Username: account.Username,
			Email:    account.Email,
			FullName: account.FullName,
		},
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Unauthorized(w, "Authentication required.")
		return
	}
	httpx.OK(w, "OK", map[string]any{
		"id":          p.UserID,
		"username":    p.Username,
		"email":       p.Email,
		"roles":       p.Roles,
		"permissions": h.gateway.Effective(p),
	})
}

package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/httpx"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// Handler wires the user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers user routes, gated per action.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.RequireModule("users", "view")).Get("/", h.list)
	r.With(h.mw.RequireModule("users", "view")).Get("/{id}", h.get)
	r.With(h.mw.RequireModule("users", "create")).Post("/", h.create)
	r.With(h.mw.RequireModule("users", "edit")).Put("/{id}", h.update)
	r.With(h.mw.RequireModule("users", "delete")).Delete("/{id}", h.delete)
	r.With(h.mw.RequireModule("users", "edit")).Post("/{id}/deactivate", h.deactivate)
	r.With(h.mw.RequireModule("users", "edit")).Post("/{id}/unlock", h.unlock)
	r.With(h.mw.RequireModule("users", "edit")).Post("/{id}/roles", h.assignRole)
	r.With(h.mw.RequireModule("users", "edit")).Delete("/{id}/roles/{roleID}", h.removeRole)
	r.With(h.mw.RequireModule("users", "edit")).Put("/{id}/permissions", h.syncPermissions)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, total, err := h.service.List(r.Context(), shared.ParseListFilters(r))
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", map[string]any{"users": users, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "Invalid user ID.", nil)
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", user)
}

type createRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=64"`
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"full_name" validate:"required"`
	Password string  `json:"password" validate:"required,min=8"`
	RoleIDs  []int64 `json:"role_ids"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	if errs := h.validate(req); errs != nil {
		httpx.BadRequest(w, "Validation failed.", errs)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	user, err := h.service.Create(r.Context(), actor, CreateInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.Created(w, "User created.", user)
}

type updateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "Invalid user ID.", nil)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	if errs := h.validate(req); errs != nil {
		httpx.BadRequest(w, "Validation failed.", errs)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	user, err := h.service.Update(r.Context(), actor, id, UpdateInput{Email: req.Email, FullName: req.FullName})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, "User updated.", user)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Delete, "User deleted.")
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Deactivate, "User deactivated.")
}

func (h *Handler) unlock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Unlock, "User unlocked.")
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor *authz.Principal, id int64) error, message string) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "Invalid user ID.", nil)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	if err := op(r.Context(), actor, id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, message, nil)
}

type roleRequest struct {
	RoleID int64 `json:"role_id" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "Invalid user ID.", nil)
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RoleID == 0 {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	if err := h.service.AssignRole(r.Context(), actor, id, req.RoleID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, "Role assigned.", nil)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "Invalid user ID.", nil)
		return
	}
	roleID, err := pathID(r, "roleID")
	if err != nil {
		httpx.BadRequest(w, "Invalid role ID.", nil)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	if err := h.service.RemoveRole(r.Context(), actor, id, roleID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, "Role removed.", nil)
}

type permissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func (h *Handler) syncPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.BadRequest(w, "Invalid user ID.", nil)
		return
	}
	var req permissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	if err := h.service.SyncDirectPermissions(r.Context(), actor, id, req.Permissions); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, "Permissions updated.", nil)
}

// respondServiceError surfaces guard rejections as 4000-class errors with
// the offending names in the errors payload so the UI can revert them.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var escalation *authz.EscalationError
	if errors.As(err, &escalation) {
		httpx.BadRequest(w, "You cannot grant permissions you do not hold.",
			map[string]any{"unauthorized_permissions": escalation.Unauthorized})
		return
	}
	var unauthorized *authz.UnauthorizedError
	if errors.As(err, &unauthorized) {
		httpx.BadRequest(w, unauthorized.Reason, nil)
		return
	}
	httpx.RespondError(w, err)
}

func (h *Handler) validate(v any) map[string]string {
	err := h.validator.Struct(v)
	if err == nil {
		return nil
	}
	fields := make(map[string]string)
	for _, fieldErr := range err.(validator.ValidationErrors) {
		fields[fieldErr.Field()] = "Invalid value."
	}
	return fields
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

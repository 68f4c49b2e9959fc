package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/httpx"
)

// Handler wires the role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      authz.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.RequireModule("roles", "view")).Get("/", h.list)
	r.With(h.mw.RequireModule("roles", "view")).Get("/{id}", h.get)
	r.With(h.mw.RequireModule("roles", "create")).Post("/", h.create)
	r.With(h.mw.RequireModule("roles", "edit")).Put("/{id}", h.update)
	r.With(h.mw.RequireModule("roles", "delete")).Delete("/{id}", h.delete)
	// The permission matrix reshapes what every holder of the role may do,
	// so the exact grant is required rather than the module-level shorthand.
	r.With(h.mw.RequirePermission("roles.edit")).Put("/{id}/permissions", h.syncPermissions)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", roles)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid role ID.", nil)
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", role)
}

type roleRequest struct {
	Name      string `json:"name"`
	Hierarchy int    `json:"hierarchy"`
	IsDefault bool   `json:"is_default"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	role, err := h.service.Create(r.Context(), actor, Input{
		Name:      req.Name,
		Hierarchy: req.Hierarchy,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		respondGuardError(w, err)
		return
	}
	httpx.Created(w, "Role created.", role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid role ID.", nil)
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	role, err := h.service.Update(r.Context(), actor, id, Input{
		Name:      req.Name,
		Hierarchy: req.Hierarchy,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		respondGuardError(w, err)
		return
	}
	httpx.OK(w, "Role updated.", role)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid role ID.", nil)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		respondGuardError(w, err)
		return
	}
	httpx.OK(w, "Role deleted.", nil)
}

type syncRequest struct {
	Permissions []string `json:"permissions"`
}

func (h *Handler) syncPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid role ID.", nil)
		return
	}
	var req syncRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	actor := authz.PrincipalFromContext(r.Context())
	if err := h.service.SyncPermissions(r.Context(), actor, id, req.Permissions); err != nil {
		respondGuardError(w, err)
		return
	}
	httpx.OK(w, "Role permissions updated.", nil)
}

func respondGuardError(w http.ResponseWriter, err error) {
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

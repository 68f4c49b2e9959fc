package staff

import (
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

type Handler struct {
	logger   *slog.Logger
	service  *Service
	mw       authz.Middleware
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.RequireModule("staff", "view")).Get("/", h.list)
	r.With(h.mw.RequireModule("staff", "view")).Get("/{id}", h.get)
	r.With(h.mw.RequireModule("staff", "create")).Post("/", h.provision)
	r.With(h.mw.RequireModule("staff", "edit")).Put("/{id}", h.update)
	r.With(h.mw.RequireModule("staff", "delete")).Delete("/{id}", h.deactivate)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	members, total, err := h.service.List(r.Context(), branchID, shared.ParseListFilters(r))
	if err != nil {
		h.logger.Error("list staff", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", map[string]any{"staff": members, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid staff ID.", nil)
		return
	}
	member, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", member)
}

func (h *Handler) provision(w http.ResponseWriter, r *http.Request) {
	actor := authz.PrincipalFromContext(r.Context())
	if actor == nil {
		httpx.Unauthorized(w, "Authentication required.")
		return
	}
	var in ProvisionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	if fields := h.fieldErrors(in); fields != nil {
		httpx.BadRequest(w, "Validation failed.", fields)
		return
	}
	member, err := h.service.Provision(r.Context(), actor, in)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.Created(w, "Staff member provisioned.", member)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid staff ID.", nil)
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	if fields := h.fieldErrors(in); fields != nil {
		httpx.BadRequest(w, "Validation failed.", fields)
		return
	}
	member, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Staff member updated.", member)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	actor := authz.PrincipalFromContext(r.Context())
	if actor == nil {
		httpx.Unauthorized(w, "Authentication required.")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid staff ID.", nil)
		return
	}
	if err := h.service.Deactivate(r.Context(), actor, id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.OK(w, "Staff member deactivated.", nil)
}

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

func (h *Handler) fieldErrors(v any) map[string]string {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	fields := make(map[string]string)
	for _, fieldErr := range err.(validator.ValidationErrors) {
		fields[fieldErr.Field()] = "Invalid value."
	}
	return fields
}

package branches

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/httpx"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// Handler wires branch endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      authz.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers branch routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.RequireModule("branches", "view")).Get("/", h.list)
	r.With(h.mw.RequireModule("branches", "view")).Get("/{id}", h.get)
	r.With(h.mw.RequireModule("branches", "create")).Post("/", h.create)
	r.With(h.mw.RequireModule("branches", "edit")).Put("/{id}", h.update)
	r.With(h.mw.RequireModule("branches", "delete")).Delete("/{id}", h.delete)
}

type branchRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	branches, total, err := h.service.List(r.Context(), shared.ParseListFilters(r))
	if err != nil {
		h.logger.Error("list branches", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", map[string]any{"branches": branches, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid branch ID.", nil)
		return
	}
	branch, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", branch)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	branch, err := h.service.Create(r.Context(), Branch{
		Code: req.Code, Name: req.Name, Address: req.Address, Phone: req.Phone,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "Branch created.", branch)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid branch ID.", nil)
		return
	}
	var req branchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	branch, err := h.service.Update(r.Context(), id, Branch{
		Code: req.Code, Name: req.Name, Address: req.Address, Phone: req.Phone,
		IsActive: req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Branch updated.", branch)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid branch ID.", nil)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Branch deleted.", nil)
}

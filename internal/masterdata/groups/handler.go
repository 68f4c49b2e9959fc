package groups

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/httpx"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      authz.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.RequireModule("groups", "view")).Get("/", h.list)
	r.With(h.mw.RequireModule("groups", "view")).Get("/{id}", h.get)
	r.With(h.mw.RequireModule("groups", "create")).Post("/", h.create)
	r.With(h.mw.RequireModule("groups", "edit")).Put("/{id}", h.update)
	r.With(h.mw.RequireModule("groups", "delete")).Delete("/{id}", h.delete)
}

type groupRequest struct {
	CenterID   int64  `json:"center_id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	LeaderName string `json:"leader_name"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	centerID, _ := strconv.ParseInt(r.URL.Query().Get("center_id"), 10, 64)
	groups, total, err := h.service.List(r.Context(), centerID, shared.ParseListFilters(r))
	if err != nil {
		h.logger.Error("list groups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", map[string]any{"groups": groups, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid group ID.", nil)
		return
	}
	group, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", group)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	group, err := h.service.Create(r.Context(), Group{
		CenterID: req.CenterID, Code: req.Code, Name: req.Name, LeaderName: req.LeaderName,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "Group created.", group)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid group ID.", nil)
		return
	}
	var req groupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	group, err := h.service.Update(r.Context(), id, Group{
		CenterID: req.CenterID, Code: req.Code, Name: req.Name, LeaderName: req.LeaderName,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Group updated.", group)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid group ID.", nil)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Group deleted.", nil)
}

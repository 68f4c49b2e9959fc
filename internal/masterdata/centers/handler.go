package centers

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
	r.With(h.mw.RequireModule("centers", "view")).Get("/", h.list)
	r.With(h.mw.RequireModule("centers", "view")).Get("/{id}", h.get)
	r.With(h.mw.RequireModule("centers", "create")).Post("/", h.create)
	r.With(h.mw.RequireModule("centers", "edit")).Put("/{id}", h.update)
	r.With(h.mw.RequireModule("centers", "delete")).Delete("/{id}", h.delete)
}

type centerRequest struct {
	BranchID   int64  `json:"branch_id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	MeetingDay string `json:"meeting_day"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	centers, total, err := h.service.List(r.Context(), branchID, shared.ParseListFilters(r))
	if err != nil {
		h.logger.Error("list centers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", map[string]any{"centers": centers, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid center ID.", nil)
		return
	}
	center, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", center)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req centerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	center, err := h.service.Create(r.Context(), Center{
		BranchID: req.BranchID, Code: req.Code, Name: req.Name, MeetingDay: req.MeetingDay,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "Center created.", center)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid center ID.", nil)
		return
	}
	var req centerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	center, err := h.service.Update(r.Context(), id, Center{
		BranchID: req.BranchID, Code: req.Code, Name: req.Name, MeetingDay: req.MeetingDay,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Center updated.", center)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid center ID.", nil)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Center deleted.", nil)
}

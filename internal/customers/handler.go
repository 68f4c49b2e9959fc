package customers

import (
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
	return &Handler{
		logger:   logger,
		service:  service,
		mw:       mw,
		validate: validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.RequireModule("customers", "view")).Get("/", h.list)
	r.With(h.mw.RequireModule("customers", "view")).Get("/{id}", h.get)
	r.With(h.mw.RequireModule("customers", "create")).Post("/", h.create)
	r.With(h.mw.RequireModule("customers", "edit")).Put("/{id}", h.update)
	r.With(h.mw.RequireModule("customers", "delete")).Delete("/{id}", h.exit)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	groupID, _ := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	status := r.URL.Query().Get("status")
	customers, total, err := h.service.List(r.Context(), groupID, status, shared.ParseListFilters(r))
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", map[string]any{"customers": customers, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid customer ID.", nil)
		return
	}
	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "OK", customer)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	if fields := h.fieldErrors(in); fields != nil {
		httpx.BadRequest(w, "Validation failed.", fields)
		return
	}
	customer, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "Customer created.", customer)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid customer ID.", nil)
		return
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.BadRequest(w, "Malformed request body.", nil)
		return
	}
	if fields := h.fieldErrors(in); fields != nil {
		httpx.BadRequest(w, "Validation failed.", fields)
		return
	}
	customer, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Customer updated.", customer)
}

func (h *Handler) exit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "Invalid customer ID.", nil)
		return
	}
	if err := h.service.Exit(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "Customer exited.", nil)
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

package positions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/permission"
	"github.com/vantage-admin/vantage-admin/internal/platform/httpx"
	"github.com/vantage-admin/vantage-admin/internal/rbac"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Handler exposes position endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), guard: guard}
}

// MountRoutes registers position routes.
func (h *Handler) MountRoutes(r chi.Router, reg *permission.Registry) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermPositionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermPositionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermPositionUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermPositionDelete))
		r.Delete("/{id}", h.remove)
	})

	reg.Add(permission.Endpoint{Controller: "positions", Handler: "list", HTTPMethod: http.MethodGet, Route: "/positions", Codes: []string{shared.PermPositionView}})
	reg.Add(permission.Endpoint{Controller: "positions", Handler: "get", HTTPMethod: http.MethodGet, Route: "/positions/{id}", Codes: []string{shared.PermPositionView}})
	reg.Add(permission.Endpoint{Controller: "positions", Handler: "create", HTTPMethod: http.MethodPost, Route: "/positions", Codes: []string{shared.PermPositionCreate}})
	reg.Add(permission.Endpoint{Controller: "positions", Handler: "update", HTTPMethod: http.MethodPut, Route: "/positions/{id}", Codes: []string{shared.PermPositionUpdate}})
	reg.Add(permission.Endpoint{Controller: "positions", Handler: "remove", HTTPMethod: http.MethodDelete, Route: "/positions/{id}", Codes: []string{shared.PermPositionDelete}})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("position list", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	pos, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreatePosition
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pos, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("position create", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pos)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var patch UpdatePosition
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pos, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.logger.Error("position update", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		h.logger.Error("position remove", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid position id")
		return uuid.Nil, false
	}
	return id, true
}

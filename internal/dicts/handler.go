package dicts

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

// Handler exposes dictionary endpoints.
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

// MountRoutes registers dictionary routes.
func (h *Handler) MountRoutes(r chi.Router, reg *permission.Registry) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermDictView))
		r.Get("/", h.listTypes)
		r.Get("/{id}", h.getType)
		r.Get("/{code}/items", h.items)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermDictCreate))
		r.Post("/", h.createType)
		r.Post("/{code}/items", h.createItem)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermDictUpdate))
		r.Put("/{id}", h.updateType)
		r.Put("/items/{id}", h.updateItem)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermDictDelete))
		r.Delete("/{id}", h.removeType)
		r.Delete("/items/{id}", h.removeItem)
	})

	reg.Add(permission.Endpoint{Controller: "dicts", Handler: "listTypes", HTTPMethod: http.MethodGet, Route: "/dicts", Codes: []string{shared.PermDictView}})
	reg.Add(permission.Endpoint{Controller: "dicts", Handler: "getType", HTTPMethod: http.MethodGet, Route: "/dicts/{id}", Codes: []string{shared.PermDictView}})
	reg.Add(permission.Endpoint{Controller: "dicts", Handler: "items", HTTPMethod: http.MethodGet, Route: "/dicts/{code}/items", Codes: []string{shared.PermDictView}})
	reg.Add(permission.Endpoint{Controller: "dicts", Handler: "createType", HTTPMethod: http.MethodPost, Route: "/dicts", Codes: []string{shared.PermDictCreate}})
	reg.Add(permission.Endpoint{Controller: "dicts", Handler: "createItem", HTTPMethod: http.MethodPost, Route: "/dicts/{code}/items", Codes: []string{shared.PermDictCreate}})
	reg.Add(permission.Endpoint{Controller: "dicts", Handler: "updateType", HTTPMethod: http.MethodPut, Route: "/dicts/{id}", Codes: []string{shared.PermDictUpdate}})
	reg.Add(permission.Endpoint{Controller: "dicts", Handler: "updateItem", HTTPMethod: http.MethodPut, Route: "/dicts/items/{id}", Codes: []string{shared.PermDictUpdate}})
	reg.Add(permission.Endpoint{Controller: "dicts", Handler: "removeType", HTTPMethod: http.MethodDelete, Route: "/dicts/{id}", Codes: []string{shared.PermDictDelete}})
	reg.Add(permission.Endpoint{Controller: "dicts", Handler: "removeItem", HTTPMethod: http.MethodDelete, Route: "/dicts/items/{id}", Codes: []string{shared.PermDictDelete}})
}

func (h *Handler) listTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListTypes(r.Context())
	if err != nil {
		h.logger.Error("dict type list", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, types)
}

func (h *Handler) getType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	t, err := h.service.GetType(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) items(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Items(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createType(w http.ResponseWriter, r *http.Request) {
	var input CreateDictType
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.CreateType(r.Context(), input)
	if err != nil {
		h.logger.Error("dict type create", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var input CreateDictItem
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	item, err := h.service.CreateItem(r.Context(), chi.URLParam(r, "code"), input)
	if err != nil {
		h.logger.Error("dict item create", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) updateType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var patch UpdateDictType
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.UpdateType(r.Context(), id, patch)
	if err != nil {
		h.logger.Error("dict type update", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var patch UpdateDictItem
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	item, err := h.service.UpdateItem(r.Context(), id, patch)
	if err != nil {
		h.logger.Error("dict item update", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) removeType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveType(r.Context(), id); err != nil {
		h.logger.Error("dict type remove", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveItem(r.Context(), id); err != nil {
		h.logger.Error("dict item remove", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid dict id")
		return uuid.Nil, false
	}
	return id, true
}

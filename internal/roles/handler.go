package roles

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

// Handler exposes role endpoints.
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

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router, reg *permission.Registry) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermRoleView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermRoleCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermRoleUpdate))
		r.Put("/{id}", h.update)
		r.Put("/{id}/permissions", h.setPermissions)
		r.Put("/{id}/departments", h.setDepartments)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermRoleDelete))
		r.Delete("/{id}", h.remove)
	})

	reg.Add(permission.Endpoint{Controller: "roles", Handler: "list", HTTPMethod: http.MethodGet, Route: "/roles", Codes: []string{shared.PermRoleView}})
	reg.Add(permission.Endpoint{Controller: "roles", Handler: "get", HTTPMethod: http.MethodGet, Route: "/roles/{id}", Codes: []string{shared.PermRoleView}})
	reg.Add(permission.Endpoint{Controller: "roles", Handler: "create", HTTPMethod: http.MethodPost, Route: "/roles", Codes: []string{shared.PermRoleCreate}})
	reg.Add(permission.Endpoint{Controller: "roles", Handler: "update", HTTPMethod: http.MethodPut, Route: "/roles/{id}", Codes: []string{shared.PermRoleUpdate}})
	reg.Add(permission.Endpoint{Controller: "roles", Handler: "setPermissions", HTTPMethod: http.MethodPut, Route: "/roles/{id}/permissions", Codes: []string{shared.PermRoleUpdate}, Action: "assign"})
	reg.Add(permission.Endpoint{Controller: "roles", Handler: "setDepartments", HTTPMethod: http.MethodPut, Route: "/roles/{id}/departments", Codes: []string{shared.PermRoleUpdate}, Action: "assignScope"})
	reg.Add(permission.Endpoint{Controller: "roles", Handler: "remove", HTTPMethod: http.MethodDelete, Route: "/roles/{id}", Codes: []string{shared.PermRoleDelete}})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("role list", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roles)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateRole
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("role create", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var patch UpdateRole
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.logger.Error("role update", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

type setIDsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req setIDsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.service.SetPermissions(r.Context(), id, req.IDs); err != nil {
		h.logger.Error("role set permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDepartments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req setIDsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.service.SetDepartments(r.Context(), id, req.IDs); err != nil {
		h.logger.Error("role set departments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		h.logger.Error("role remove", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return uuid.Nil, false
	}
	return id, true
}

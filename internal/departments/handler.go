package departments

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

// Handler exposes department endpoints.
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

// MountRoutes registers department routes.
func (h *Handler) MountRoutes(r chi.Router, reg *permission.Registry) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermDepartmentView))
		r.Get("/", h.tree)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermDepartmentCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermDepartmentUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermDepartmentDelete))
		r.Delete("/{id}", h.remove)
	})

	reg.Add(permission.Endpoint{Controller: "departments", Handler: "tree", HTTPMethod: http.MethodGet, Route: "/departments", Codes: []string{shared.PermDepartmentView}})
	reg.Add(permission.Endpoint{Controller: "departments", Handler: "create", HTTPMethod: http.MethodPost, Route: "/departments", Codes: []string{shared.PermDepartmentCreate}})
	reg.Add(permission.Endpoint{Controller: "departments", Handler: "update", HTTPMethod: http.MethodPut, Route: "/departments/{id}", Codes: []string{shared.PermDepartmentUpdate}})
	reg.Add(permission.Endpoint{Controller: "departments", Handler: "remove", HTTPMethod: http.MethodDelete, Route: "/departments/{id}", Codes: []string{shared.PermDepartmentDelete}})
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.logger.Error("department tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tree)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateDepartment
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	dept, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("department create", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dept)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid department id")
		return
	}
	var patch UpdateDepartment
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	dept, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.logger.Error("department update", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dept)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid department id")
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		h.logger.Error("department remove", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

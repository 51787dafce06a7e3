package permission

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/platform/httpx"
	"github.com/vantage-admin/vantage-admin/internal/rbac"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Handler exposes the permission tree endpoints.
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

// MountRoutes registers permission routes and records them into the endpoint
// registry consumed by the synchronizer.
func (h *Handler) MountRoutes(r chi.Router, reg *Registry) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermPermissionView))
		r.Get("/", h.tree)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermPermissionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermPermissionUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermPermissionDelete))
		r.Delete("/batch", h.removeMany)
		r.Delete("/{id}", h.remove)
	})

	reg.Add(Endpoint{Controller: "permissions", Handler: "tree", HTTPMethod: http.MethodGet, Route: "/permissions", Codes: []string{shared.PermPermissionView}})
	reg.Add(Endpoint{Controller: "permissions", Handler: "get", HTTPMethod: http.MethodGet, Route: "/permissions/{id}", Codes: []string{shared.PermPermissionView}})
	reg.Add(Endpoint{Controller: "permissions", Handler: "create", HTTPMethod: http.MethodPost, Route: "/permissions", Codes: []string{shared.PermPermissionCreate}})
	reg.Add(Endpoint{Controller: "permissions", Handler: "update", HTTPMethod: http.MethodPut, Route: "/permissions/{id}", Codes: []string{shared.PermPermissionUpdate}})
	reg.Add(Endpoint{Controller: "permissions", Handler: "removeMany", HTTPMethod: http.MethodDelete, Route: "/permissions/batch", Codes: []string{shared.PermPermissionDelete}})
	reg.Add(Endpoint{Controller: "permissions", Handler: "remove", HTTPMethod: http.MethodDelete, Route: "/permissions/{id}", Codes: []string{shared.PermPermissionDelete}})
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.service.Tree(r.Context())
	if err != nil {
		h.logger.Error("permission tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, nodes)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid node id")
		return
	}
	node, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, node)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateNode
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	node, err := h.service.Create(r.Context(), h.actor(r), input)
	if err != nil {
		h.logger.Error("permission create", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, node)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid node id")
		return
	}
	var patch UpdateNode
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	node, err := h.service.Update(r.Context(), h.actor(r), id, patch)
	if err != nil {
		h.logger.Error("permission update", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, node)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid node id")
		return
	}
	if err := h.service.RemoveMany(r.Context(), h.actor(r), []uuid.UUID{id}); err != nil {
		h.logger.Error("permission remove", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type removeManyRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

func (h *Handler) removeMany(w http.ResponseWriter, r *http.Request) {
	var req removeManyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.RemoveMany(r.Context(), h.actor(r), req.IDs); err != nil {
		h.logger.Error("permission remove many", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) actor(r *http.Request) string {
	if p := rbac.PrincipalFromContext(r.Context()); p != nil {
		return p.UserID.String()
	}
	return ""
}

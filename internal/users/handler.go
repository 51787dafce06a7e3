package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/permission"
	"github.com/vantage-admin/vantage-admin/internal/platform/httpx"
	"github.com/vantage-admin/vantage-admin/internal/rbac"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Handler exposes user account endpoints. Listing runs through the data
// scope resolver so each caller only sees the rows their role permits.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	resolver *rbac.Resolver
	validate *validator.Validate
	guard    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver *rbac.Resolver, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, resolver: resolver, validate: validator.New(), guard: guard}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router, reg *permission.Registry) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermUserView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/roles", h.roles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermUserCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermUserUpdate))
		r.Put("/{id}", h.update)
		r.Put("/{id}/roles", h.setRoles)
		r.Put("/{id}/reset-password", h.resetPassword)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissions(shared.PermUserDelete))
		r.Delete("/{id}", h.remove)
	})

	reg.Add(permission.Endpoint{Controller: "users", Handler: "list", HTTPMethod: http.MethodGet, Route: "/users", Codes: []string{shared.PermUserView}})
	reg.Add(permission.Endpoint{Controller: "users", Handler: "get", HTTPMethod: http.MethodGet, Route: "/users/{id}", Codes: []string{shared.PermUserView}})
	reg.Add(permission.Endpoint{Controller: "users", Handler: "roles", HTTPMethod: http.MethodGet, Route: "/users/{id}/roles", Codes: []string{shared.PermUserView}})
	reg.Add(permission.Endpoint{Controller: "users", Handler: "create", HTTPMethod: http.MethodPost, Route: "/users", Codes: []string{shared.PermUserCreate}})
	reg.Add(permission.Endpoint{Controller: "users", Handler: "update", HTTPMethod: http.MethodPut, Route: "/users/{id}", Codes: []string{shared.PermUserUpdate}})
	reg.Add(permission.Endpoint{Controller: "users", Handler: "setRoles", HTTPMethod: http.MethodPut, Route: "/users/{id}/roles", Codes: []string{shared.PermUserUpdate}, Action: "assign"})
	reg.Add(permission.Endpoint{Controller: "users", Handler: "resetPassword", HTTPMethod: http.MethodPut, Route: "/users/{id}/reset-password", Codes: []string{shared.PermUserUpdate}})
	reg.Add(permission.Endpoint{Controller: "users", Handler: "remove", HTTPMethod: http.MethodDelete, Route: "/users/{id}", Codes: []string{shared.PermUserDelete}})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	scope := rbac.Predicate{Kind: rbac.Unrestricted}
	if !principal.IsSuperAdmin {
		var err error
		scope, err = h.resolver.Resolve(r.Context(), principal.UserID)
		if err != nil {
			h.logger.Error("user scope resolve", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}
	req := ListUsersRequest{
		Page:     queryInt(r, "page", 1),
		PerPage:  queryInt(r, "perPage", 20),
		Username: r.URL.Query().Get("username"),
	}
	page, err := h.service.List(r.Context(), req, scope)
	if err != nil {
		h.logger.Error("user list", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) roles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	ids, err := h.service.RoleIDs(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roleIds": ids})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateUser
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.Create(r.Context(), h.actorID(r), input)
	if err != nil {
		h.logger.Error("user create", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var patch UpdateUser
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.Update(r.Context(), h.actor(r), id, patch)
	if err != nil {
		h.logger.Error("user update", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type setRolesRequest struct {
	RoleIDs []uuid.UUID `json:"roleIds"`
}

func (h *Handler) setRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req setRolesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.service.SetRoles(r.Context(), h.actor(r), id, req.RoleIDs); err != nil {
		h.logger.Error("user set roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ResetPassword(r.Context(), h.actor(r), id, req.Password); err != nil {
		h.logger.Error("user reset password", slog.Any("error", err))
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
	if err := h.service.Remove(r.Context(), h.actor(r), id); err != nil {
		h.logger.Error("user remove", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) actor(r *http.Request) *rbac.Principal {
	return rbac.PrincipalFromContext(r.Context())
}

func (h *Handler) actorID(r *http.Request) string {
	if p := h.actor(r); p != nil {
		return p.UserID.String()
	}
	return ""
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

package auth

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/platform/httpx"
	"github.com/vantage-admin/vantage-admin/internal/rbac"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validate       *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validate:       validator.New(),
	}
}

// MountRoutes registers auth routes on provided router. Login and logout are
// deliberately unguarded; the profile endpoint requires a principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/profile", h.handleProfile)
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	CSRFToken string    `json:"csrfToken"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	acc, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "session unavailable")
		return
	}
	sess.SetUser(acc.ID.String())

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, acc.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Warn("issue csrf token", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, loginResponse{UserID: acc.ID, Username: acc.Username, CSRFToken: token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

type profileRole struct {
	Key       string         `json:"key"`
	Name      string         `json:"name"`
	DataScope rbac.DataScope `json:"dataScope"`
}

type profileResponse struct {
	UserID       uuid.UUID     `json:"userId"`
	Username     string        `json:"username"`
	DepartmentID *uuid.UUID    `json:"departmentId,omitempty"`
	IsSuperAdmin bool          `json:"isSuperAdmin"`
	Roles        []profileRole `json:"roles"`
	Permissions  []string      `json:"permissions"`
}

// handleProfile returns the caller's aggregated identity: account, roles and
// the flattened permission code set the guards evaluate against.
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	p := rbac.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}

	resp := profileResponse{
		UserID:       p.UserID,
		Username:     p.Username,
		IsSuperAdmin: p.IsSuperAdmin,
		Roles:        make([]profileRole, 0, len(p.Roles)),
		Permissions:  make([]string, 0, len(p.PermissionCodes)),
	}
	if p.DepartmentID != uuid.Nil {
		dept := p.DepartmentID
		resp.DepartmentID = &dept
	}
	for _, role := range p.Roles {
		resp.Roles = append(resp.Roles, profileRole{Key: role.Key, Name: role.Name, DataScope: role.DataScope})
	}
	for code := range p.PermissionCodes {
		resp.Permissions = append(resp.Permissions, code)
	}
	sort.Strings(resp.Permissions)

	httpx.JSON(w, http.StatusOK, resp)
}

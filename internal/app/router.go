package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vantage-admin/vantage-admin/internal/auth"
	"github.com/vantage-admin/vantage-admin/internal/departments"
	"github.com/vantage-admin/vantage-admin/internal/dicts"
	"github.com/vantage-admin/vantage-admin/internal/observability"
	"github.com/vantage-admin/vantage-admin/internal/permission"
	"github.com/vantage-admin/vantage-admin/internal/positions"
	"github.com/vantage-admin/vantage-admin/internal/roles"
	"github.com/vantage-admin/vantage-admin/internal/shared"
	"github.com/vantage-admin/vantage-admin/internal/users"
	"github.com/vantage-admin/vantage-admin/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	Registry           *permission.Registry
	AuthHandler        *auth.Handler
	PermissionHandler  *permission.Handler
	RolesHandler       *roles.Handler
	UsersHandler       *users.Handler
	DepartmentsHandler *departments.Handler
	PositionsHandler   *positions.Handler
	DictsHandler       *dicts.Handler
	JobsHandler        *jobs.Handler
	Middleware         MiddlewareConfig
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router and fills the endpoint registry as a
// side effect of mounting each module.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(params.Middleware) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/permissions", func(r chi.Router) {
		params.PermissionHandler.MountRoutes(r, params.Registry)
	})
	r.Route("/roles", func(r chi.Router) {
		params.RolesHandler.MountRoutes(r, params.Registry)
	})
	r.Route("/users", func(r chi.Router) {
		params.UsersHandler.MountRoutes(r, params.Registry)
	})
	r.Route("/departments", func(r chi.Router) {
		params.DepartmentsHandler.MountRoutes(r, params.Registry)
	})
	r.Route("/positions", func(r chi.Router) {
		params.PositionsHandler.MountRoutes(r, params.Registry)
	})
	r.Route("/dicts", func(r chi.Router) {
		params.DictsHandler.MountRoutes(r, params.Registry)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

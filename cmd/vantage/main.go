package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vantage-admin/vantage-admin/internal/app"
	"github.com/vantage-admin/vantage-admin/internal/auth"
	"github.com/vantage-admin/vantage-admin/internal/departments"
	"github.com/vantage-admin/vantage-admin/internal/dicts"
	"github.com/vantage-admin/vantage-admin/internal/observability"
	"github.com/vantage-admin/vantage-admin/internal/permission"
	"github.com/vantage-admin/vantage-admin/internal/platform/cache"
	"github.com/vantage-admin/vantage-admin/internal/platform/db"
	"github.com/vantage-admin/vantage-admin/internal/positions"
	"github.com/vantage-admin/vantage-admin/internal/rbac"
	"github.com/vantage-admin/vantage-admin/internal/roles"
	"github.com/vantage-admin/vantage-admin/internal/shared"
	"github.com/vantage-admin/vantage-admin/internal/users"
	"github.com/vantage-admin/vantage-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDialTimeout)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	reserved := shared.DefaultReserved()
	if cfg.SuperRoleKey != "" {
		reserved.SuperRoleKey = cfg.SuperRoleKey
	}
	if cfg.SuperUsername != "" {
		reserved.SuperUsername = cfg.SuperUsername
	}

	sessionManager := shared.NewSessionManager(redisClient, "vantage_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	directory := rbac.NewDirectory(pool)
	aggregator := rbac.NewAggregator(directory, reserved)
	guard := rbac.Middleware{Aggregator: aggregator, Logger: logger, Reserved: reserved, Metrics: metrics}

	departmentRepo := departments.NewRepository(pool)
	departmentService := departments.NewService(departmentRepo)
	resolver := rbac.NewResolver(directory, departmentService)

	permissionRepo := permission.NewRepository(pool)
	permissionService := permission.NewService(permissionRepo, reserved, auditLogger, logger)
	permissionHandler := permission.NewHandler(logger, permissionService, guard)

	roleRepo := roles.NewRepository(pool)
	roleService := roles.NewService(roleRepo, reserved)
	roleHandler := roles.NewHandler(logger, roleService, guard)

	userRepo := users.NewRepository(pool)
	userService := users.NewService(userRepo, reserved, auditLogger, logger)
	userHandler := users.NewHandler(logger, userService, resolver, guard)

	departmentHandler := departments.NewHandler(logger, departmentService, guard)

	positionRepo := positions.NewRepository(pool)
	positionService := positions.NewService(positionRepo)
	positionHandler := positions.NewHandler(logger, positionService, guard)

	dictRepo := dicts.NewRepository(pool)
	dictCache := dicts.NewItemCache(redisClient, logger)
	dictService := dicts.NewService(dictRepo, dictCache)
	dictHandler := dicts.NewHandler(logger, dictService, guard)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	jobsInspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobsHandler := jobs.NewHandler(jobsInspector, logger)

	registry := permission.NewRegistry()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Registry:           registry,
		AuthHandler:        authHandler,
		PermissionHandler:  permissionHandler,
		RolesHandler:       roleHandler,
		UsersHandler:       userHandler,
		DepartmentsHandler: departmentHandler,
		PositionsHandler:   positionHandler,
		DictsHandler:       dictHandler,
		JobsHandler:        jobsHandler,
		Middleware: app.MiddlewareConfig{
			Logger:         logger,
			Config:         cfg,
			SessionManager: sessionManager,
			CSRFManager:    csrfManager,
			RBAC:           guard,
			Metrics:        metrics,
		},
		Metrics: metrics,
	})

	// Reconcile the endpoint table against the permission tree before
	// accepting traffic, then ship the report to the worker for export.
	synchronizer := permission.NewSynchronizer(permissionRepo, reserved.RootParentID, logger)
	report, err := synchronizer.Run(ctx, registry.Endpoints())
	if err != nil {
		logger.Error("permission sync", slog.Any("error", err))
		os.Exit(1)
	}
	for _, entry := range report {
		metrics.SyncOutcome(string(entry.Status))
	}
	logger.Info("permission sync complete", slog.Int("entries", len(report)))

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("init jobs client", slog.Any("error", err))
	} else {
		defer func() {
			if err := jobsClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		if task, err := jobs.NewSyncReportTask(time.Now().UTC(), report); err != nil {
			logger.Warn("build sync report task", slog.Any("error", err))
		} else if _, err := jobsClient.Enqueue(ctx, task); err != nil {
			logger.Warn("enqueue sync report", slog.Any("error", err))
		}
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

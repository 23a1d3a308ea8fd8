package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/return-lorry/lorry-admin/internal/admins"
	"github.com/return-lorry/lorry-admin/internal/app"
	"github.com/return-lorry/lorry-admin/internal/audit"
	audithttp "github.com/return-lorry/lorry-admin/internal/audit/http"
	"github.com/return-lorry/lorry-admin/internal/auth"
	"github.com/return-lorry/lorry-admin/internal/catalog"
	"github.com/return-lorry/lorry-admin/internal/observability"
	"github.com/return-lorry/lorry-admin/internal/platform/cache"
	"github.com/return-lorry/lorry-admin/internal/platform/db"
	"github.com/return-lorry/lorry-admin/internal/rbac"
	"github.com/return-lorry/lorry-admin/internal/shared"
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

	// Sessions and the permission cache both live in redis, so a dead
	// instance is fatal rather than degraded.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "lorry_admin_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)

	permissionCache := rbac.NewCache(redisClient, cfg.PermissionCacheTTL)
	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, catalogService, permissionCache, logger)
	rbacGuard := rbac.Middleware{Service: rbacService, Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbacService, rbacGuard)

	catalogHandler := catalog.NewHandler(logger, catalogService, rbacGuard)

	adminsRepo := admins.NewRepository(pool)
	adminsService := admins.NewService(adminsRepo)
	adminsHandler := admins.NewHandler(logger, adminsService, rbacGuard)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audithttp.NewHandler(logger, auditService, rbacGuard)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		RBACHandler:    rbacHandler,
		CatalogHandler: catalogHandler,
		AdminsHandler:  adminsHandler,
		AuditHandler:   auditHandler,
		Metrics:        metrics,
	})

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

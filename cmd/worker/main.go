package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/return-lorry/lorry-admin/internal/app"
	"github.com/return-lorry/lorry-admin/internal/audit"
	"github.com/return-lorry/lorry-admin/internal/catalog"
	"github.com/return-lorry/lorry-admin/internal/platform/cache"
	"github.com/return-lorry/lorry-admin/internal/platform/db"
	"github.com/return-lorry/lorry-admin/internal/rbac"
	"github.com/return-lorry/lorry-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)

	permissionCache := rbac.NewCache(redisClient, cfg.PermissionCacheTTL)
	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, catalogService, permissionCache, logger)

	auditRepo := audit.NewRepository(pool)

	retentionJob := jobs.NewAuditRetentionJob(auditRepo, logger)
	warmupJob := jobs.NewPermissionWarmupJob(rbacRepo, rbacService, logger)

	retentionTask, err := jobs.NewAuditRetentionTask(jobs.AuditRetentionPayload{
		RetentionDays: cfg.AuditRetentionDays,
	})
	if err != nil {
		logger.Error("build retention task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewPermissionWarmupTask(jobs.PermissionWarmupPayload{
		MaxAdmins: cfg.CacheWarmupAdmins,
	})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditRetention, Handler: retentionJob.Handle},
			{Type: jobs.TaskPermissionWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: retentionTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/30 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

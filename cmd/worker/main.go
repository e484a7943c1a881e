package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/savemo/identity/internal/app"
	"github.com/savemo/identity/internal/audit"
	"github.com/savemo/identity/internal/platform/cache"
	"github.com/savemo/identity/internal/platform/db"
	"github.com/savemo/identity/internal/rbac"
	"github.com/savemo/identity/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
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

	rbacRepo := rbac.NewRepository(pool)
	permCache := rbac.NewCache(redisClient, cfg.PermissionCacheTTL)
	resolver := rbac.NewResolver(rbacRepo, permCache)
	auditRepo := audit.NewRepository(pool)

	assignmentsJob := jobs.NewPruneAssignmentsJob(rbacRepo, resolver, logger, nil)
	loginEventsJob := jobs.NewPruneLoginEventsJob(auditRepo, logger, nil)

	now := time.Now().UTC()
	assignmentsTask, err := jobs.NewAssignmentsPruneTask(now)
	if err != nil {
		logger.Error("build assignments prune task", slog.Any("error", err))
		os.Exit(1)
	}
	loginEventsTask, err := jobs.NewLoginEventsPruneTask(now, cfg.LoginEventRetentionDays)
	if err != nil {
		logger.Error("build login events prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAssignmentsPrune, Handler: assignmentsJob.Handle},
			{Type: jobs.TaskLoginEventsPrune, Handler: loginEventsJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: assignmentsTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: loginEventsTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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

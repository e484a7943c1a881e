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

	"github.com/savemo/identity/internal/app"
	"github.com/savemo/identity/internal/audit"
	"github.com/savemo/identity/internal/auth"
	"github.com/savemo/identity/internal/credential"
	"github.com/savemo/identity/internal/observability"
	"github.com/savemo/identity/internal/platform/cache"
	"github.com/savemo/identity/internal/platform/db"
	"github.com/savemo/identity/internal/rbac"
	"github.com/savemo/identity/internal/roles"
	"github.com/savemo/identity/internal/token"
	"github.com/savemo/identity/internal/users"
	"github.com/savemo/identity/jobs"
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

	metrics := observability.NewMetrics()

	tokenService, err := token.NewService(cfg.TokenConfig())
	if err != nil {
		logger.Error("init token service", slog.Any("error", err))
		os.Exit(1)
	}
	tokenService = tokenService.WithMetrics(metrics)
	hasher := credential.NewHasher(cfg.BcryptCost)

	userRepo := users.NewRepository(pool)
	userService := users.NewService(userRepo)

	rbacRepo := rbac.NewRepository(pool)
	permCache := rbac.NewCache(redisClient, cfg.PermissionCacheTTL)
	resolver := rbac.NewResolver(rbacRepo, permCache)
	rbacService := rbac.NewService(rbacRepo, resolver)
	rbacMiddleware := rbac.Middleware{Resolver: resolver, Logger: logger, Metrics: metrics}

	auditRecorder := audit.NewRecorder(audit.NewRepository(pool))

	authService := auth.NewService(userRepo, hasher, tokenService)
	authHandler := auth.NewHandler(logger, authService, resolver, auditRecorder, metrics)

	usersHandler := users.NewHandler(logger, userService, rbacMiddleware)
	rolesHandler := roles.NewHandler(logger, roles.NewService(roles.NewRepository(pool)), rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, resolver, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/burrow-admin/burrow/internal/app"
	"github.com/burrow-admin/burrow/internal/audit"
	"github.com/burrow-admin/burrow/internal/auth"
	"github.com/burrow-admin/burrow/internal/menu"
	"github.com/burrow-admin/burrow/internal/platform/cache"
	"github.com/burrow-admin/burrow/internal/platform/db"
	"github.com/burrow-admin/burrow/internal/rbac"
	"github.com/burrow-admin/burrow/internal/roles"
	"github.com/burrow-admin/burrow/internal/token"
	"github.com/burrow-admin/burrow/internal/users"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	tiered := cache.NewTiered(redisClient, cfg.CacheNamespace, cfg.CacheSize, cfg.CacheTTL)
	tokens := token.NewManager(cfg.TokenSecret, cfg.TokenTTL, cfg.TokenSSO, tiered)

	rbacRepo := rbac.NewRepository(dbpool)
	resolver := rbac.NewResolver(rbacRepo, tiered)
	rbacMiddleware := rbac.Middleware{Resolver: resolver, Logger: logger}

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo, resolver)
	userHandler := users.NewHandler(logger, userService, rbacMiddleware)

	authService := auth.NewService(userRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)

	menuRepo := menu.NewRepository(dbpool)
	menuService := menu.NewService(menuRepo, resolver)
	menuHandler := menu.NewHandler(logger, menuService, rbacMiddleware)

	roleRepo := roles.NewRepository(dbpool)
	roleService := roles.NewService(roleRepo, resolver)
	roleHandler := roles.NewHandler(logger, roleService, rbacMiddleware)

	recorder := audit.NewRecorder(dbpool)
	auditHandler := audit.NewHandler(logger, recorder, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		Tokens:       tokens,
		AuditSink:    recorder,
		AuthHandler:  authHandler,
		MenuHandler:  menuHandler,
		RolesHandler: roleHandler,
		UsersHandler: userHandler,
		AuditHandler: auditHandler,
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

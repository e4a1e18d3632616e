package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/auth-gate/internal/api/http"
	"github.com/spec-kit/auth-gate/internal/api/http/handlers"
	"github.com/spec-kit/auth-gate/internal/auth"
	"github.com/spec-kit/auth-gate/internal/config"
	"github.com/spec-kit/auth-gate/internal/observability"
	"github.com/spec-kit/auth-gate/internal/persistence"
	"github.com/spec-kit/auth-gate/internal/repository"
	"github.com/spec-kit/auth-gate/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	deps := map[string]handlers.Pinger{}
	var userRepo repository.UserRepository
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.Pool)
		deps["postgres"] = pg
		if redis.Client != nil {
			userRepo = repository.NewCachedUserRepository(userRepo, redis.Client, cfg.Redis.UserCacheTTL(), logger)
			deps["redis"] = redis
		}
	} else {
		if redis.Client != nil {
			logger.Warn("user cache needs postgres; ignoring REDIS_ADDR")
		}
		userRepo = repository.NewMemoryUserRepository()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	gate := auth.NewGate(authService.TokenManager(), userRepo, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Users:          handlers.NewUsersHandler(authService),
		AuthMiddleware: auth.NewMiddleware(gate, logger, metrics),
	}
	if cfg.Metrics.Enabled {
		routes.Metrics = adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		routes.MetricsPath = cfg.Metrics.Path
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

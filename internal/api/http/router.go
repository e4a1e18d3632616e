package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gate/internal/api/http/handlers"
	"github.com/spec-kit/auth-gate/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
	// Metrics is mounted at MetricsPath when both are set.
	Metrics     fiber.Handler
	MetricsPath string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		app.Get(cfg.MetricsPath, cfg.Metrics)
	}

	app.Post("/users", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)

	// The gate is attached per route so unknown paths still 404 instead of 401.
	app.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)
}

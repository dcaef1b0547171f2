package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gateway/internal/api/http/handlers"
	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Mode   domain.AuthMode
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Guard  *auth.AccessGuard
}

// RegisterRoutes wires HTTP routes. Variant-specific endpoints are only
// registered for the active mode.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/register", cfg.Auth.Register)
	switch cfg.Mode {
	case domain.AuthModeSelfService:
		app.Post("/token/refresh", cfg.Auth.Refresh)
	case domain.AuthModeServiceGated:
		app.Post("/generate-token", cfg.Auth.GenerateToken)
	}

	app.Get("/secure-data", cfg.Guard.Handle, cfg.Auth.SecureData)
}

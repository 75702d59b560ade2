package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-request-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-request-service/internal/auth"
	"github.com/spec-kit/civic-request-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.RequestsHandler
	Admin          *handlers.AdminHandler
	Dashboard      *handlers.DashboardHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/requests", cfg.Requests.CreateRequest)
	app.Get("/requests/track/:number", cfg.Requests.TrackRequest)

	app.Get("/dashboard/public", cfg.Dashboard.PublicDashboard)
	app.Get("/dashboard/sla", cfg.Dashboard.SLAReport)

	app.Post("/auth/staff/login", cfg.Auth.Login)

	admin := app.Group("/admin",
		cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleAdmin, domain.RoleMunicipalityAdmin),
	)
	admin.Get("/requests", cfg.Admin.ListRequests)
	admin.Get("/requests/:id", cfg.Admin.GetRequest)
	admin.Post("/requests/:id/status", cfg.Admin.ChangeStatus)
	admin.Post("/requests/:id/assign", cfg.Admin.AssignRequest)
	admin.Post("/requests/:id/comments", cfg.Admin.AddComment)
}

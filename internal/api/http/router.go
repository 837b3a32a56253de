package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/problem-report-service/internal/api/http/handlers"
	"github.com/assetdesk/problem-report-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Reports        *handlers.ReportsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/register", cfg.Users.Register)
	app.Post("/auth/login", cfg.Users.Login)

	authed := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	authed.Get("/users", cfg.Users.ListUsers)

	reports := authed.Group("/problem-reports")
	reports.Post("", cfg.Reports.CreateReport)
	reports.Get("", cfg.Reports.ListReports)
	reports.Get("/:id", cfg.Reports.GetReport)
	reports.Get("/:id/messages", cfg.Reports.ListMessages)
	reports.Post("/:id/messages", cfg.Reports.AddMessage)
	reports.Patch("/:id", auth.RequireAdmin(), cfg.Reports.UpdateReport)
	reports.Post("/:id/archive", auth.RequireAdmin(), cfg.Reports.ArchiveReport)

	authed.Get("/notifications", cfg.Notifications.ListNotifications)
	authed.Post("/notifications/:id/read", cfg.Notifications.MarkRead)
}

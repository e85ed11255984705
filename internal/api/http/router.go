package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/curadesk/support-platform/internal/api/http/handlers"
	"github.com/curadesk/support-platform/internal/auth"
)

// IdentityRouteConfig bundles dependencies for the identity service routes.
type IdentityRouteConfig struct {
	Health   *handlers.HealthHandler
	Validate *handlers.ValidateHandler
}

// RegisterIdentityRoutes wires the identity service HTTP surface. The
// service is internal-only; /validate carries no authentication of its own.
func RegisterIdentityRoutes(app *fiber.App, cfg IdentityRouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Post("/validate", cfg.Validate.Validate)
}

// SupportRouteConfig bundles dependencies for the support service routes.
type SupportRouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterSupportRoutes wires the support service HTTP surface. Everything
// except the health probes requires an X-API-Key resolved by the identity
// service.
func RegisterSupportRoutes(app *fiber.App, cfg SupportRouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/zip", cfg.Tickets.DownloadBundle)

	admin := app.Group("/admin/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	admin.Get("", cfg.AdminTickets.ListTickets)
	admin.Get("/:id", cfg.AdminTickets.GetTicket)
	admin.Put("/:id/state", cfg.AdminTickets.UpdateState)
	admin.Post("/:id/comments", cfg.AdminTickets.AddComment)
	admin.Get("/:id/zip", cfg.AdminTickets.DownloadBundle)
}

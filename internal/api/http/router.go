package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-internal/chamados-service/internal/api/http/handlers"
	"github.com/helpdesk-internal/chamados-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Accounts       *handlers.AccountsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Accounts.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/poke", cfg.Tickets.Poke)

	staffOnly := tickets.Group("", auth.RequireTI())
	staffOnly.Patch("/:id", cfg.Tickets.UpdateTicket)
	staffOnly.Post("/:id/reopen", cfg.Tickets.ReopenTicket)

	accounts := app.Group("/accounts", cfg.AuthMiddleware.Handle, auth.RequireTI())
	accounts.Post("/", cfg.Accounts.CreateAccount)
	accounts.Get("/", cfg.Accounts.ListAccounts)
	accounts.Delete("/:id", cfg.Accounts.DeleteAccount)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ayachi01/FixItWeb/internal/api/http/handlers"
	"github.com/ayachi01/FixItWeb/internal/auth"
	"github.com/ayachi01/FixItWeb/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Invites        *handlers.InvitesHandler
	Tickets        *handlers.TicketsHandler
	Locations      *handlers.LocationsHandler
	Audit          *handlers.AuditHandler
	Roles          *handlers.RolesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Accounts.Register)
	authGroup.Post("/verify", cfg.Accounts.VerifyOTP)
	authGroup.Post("/verify/resend", cfg.Accounts.ResendOTP)
	authGroup.Post("/login", cfg.Accounts.Login)
	authGroup.Post("/password/reset/request", cfg.Accounts.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Accounts.ConfirmPasswordReset)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Accounts.Logout)

	accounts := app.Group("/accounts", cfg.AuthMiddleware.Handle)
	accounts.Get("/me", auth.RequireAuthenticated(), cfg.Accounts.Me)
	accounts.Put("/:id/role", auth.RequireUserManager(), cfg.Accounts.AssignRole)

	app.Post("/invites/redeem/:token", cfg.Invites.Redeem)
	invites := app.Group("/invites", cfg.AuthMiddleware.Handle)
	invites.Post("/", auth.RequireUserManager(), cfg.Invites.Create)
	invites.Get("/", auth.RequireUserManager(), cfg.Invites.List)
	invites.Get("/pending", auth.RequireAdminLevel(), cfg.Invites.ListPending)
	invites.Post("/:id/approve", auth.RequireAdminLevel(), cfg.Invites.Approve)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", auth.RequireReporter(), cfg.Tickets.Create)
	tickets.Get("/", auth.RequireAuthenticated(), cfg.Tickets.List)
	tickets.Get("/fixers", auth.RequireAssigner(), cfg.Tickets.EligibleFixers)
	tickets.Get("/:id", auth.RequireAuthenticated(), cfg.Tickets.Get)
	tickets.Post("/:id/assign", auth.RequireAssigner(), cfg.Tickets.Assign)
	tickets.Post("/:id/accept", auth.RequireAuthenticated(), cfg.Tickets.Accept)
	tickets.Post("/:id/resolve", auth.RequireAuthenticated(), cfg.Tickets.Resolve)
	tickets.Post("/:id/close", auth.RequireAdminLevel(), cfg.Tickets.Close)
	tickets.Post("/:id/reopen", auth.RequireAdminLevel(), cfg.Tickets.Reopen)

	locations := app.Group("/locations", cfg.AuthMiddleware.Handle)
	locations.Post("/", auth.RequirePermission(func(b domain.PermissionBundle) bool {
		return b.CanManageUsers || b.IsAdminLevel
	}, "location management requires an administrative role"), cfg.Locations.Create)
	locations.Get("/", auth.RequireAuthenticated(), cfg.Locations.List)
	locations.Get("/:id", auth.RequireAuthenticated(), cfg.Locations.Get)

	app.Get("/roles", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Roles.List)
	app.Get("/audit", cfg.AuthMiddleware.Handle, auth.RequireAdminLevel(), cfg.Audit.List)
}

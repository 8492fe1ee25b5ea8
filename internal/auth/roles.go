package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// RequirePermission guards a route with a predicate over the caller's
// permission bundle.
func RequirePermission(allowed func(domain.PermissionBundle) bool, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !allowed(principal.Bundle) {
			return fiber.NewError(http.StatusForbidden, message)
		}
		return c.Next()
	}
}

// RequireReporter ensures the caller may report tickets.
func RequireReporter() fiber.Handler {
	return RequirePermission(func(b domain.PermissionBundle) bool { return b.CanReport }, "reporting permission required")
}

// RequireAssigner ensures the caller may assign tickets.
func RequireAssigner() fiber.Handler {
	return RequirePermission(func(b domain.PermissionBundle) bool { return b.CanAssign }, "assignment permission required")
}

// RequireUserManager ensures the caller may manage users and invites.
func RequireUserManager() fiber.Handler {
	return RequirePermission(func(b domain.PermissionBundle) bool { return b.CanManageUsers }, "user management permission required")
}

// RequireAdminLevel ensures the caller holds an admin-level role.
func RequireAdminLevel() fiber.Handler {
	return RequirePermission(func(b domain.PermissionBundle) bool { return b.IsAdminLevel }, "admin role required")
}

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}

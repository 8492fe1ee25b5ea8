package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ayachi01/FixItWeb/internal/roles"
)

// RolesHandler exposes the loaded role catalog.
type RolesHandler struct {
	registry *roles.Registry
}

// NewRolesHandler constructs handler.
func NewRolesHandler(registry *roles.Registry) *RolesHandler {
	return &RolesHandler{registry: registry}
}

// List handles GET /roles.
func (h *RolesHandler) List(c *fiber.Ctx) error {
	catalog := h.registry.Catalog()
	out := make([]fiber.Map, 0, len(catalog))
	for _, role := range catalog {
		out = append(out, fiber.Map{
			"name":         role.Name,
			"description":  role.Description,
			"is_sensitive": role.IsSensitive,
			"permissions": fiber.Map{
				"can_report":         role.Permissions.CanReport,
				"can_fix":            role.Permissions.CanFix,
				"can_assign":         role.Permissions.CanAssign,
				"can_manage_users":   role.Permissions.CanManageUsers,
				"is_admin_level":     role.Permissions.IsAdminLevel,
				"allowed_categories": role.Permissions.AllowedCategories,
			},
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"roles": out}})
}

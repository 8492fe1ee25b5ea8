package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/repository"
	"github.com/ayachi01/FixItWeb/internal/service"
)

// AuditHandler exposes the audit trail to admin-level roles.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List handles GET /audit. Route-level guards restrict it to admin roles.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	if _, err := requireActor(c); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	entries, err := h.audit.List(c.Context(), repository.AuditFilter{
		Action:      domain.AuditAction(c.Query("action")),
		PerformedBy: c.Query("performed_by"),
		TargetUser:  c.Query("target_user"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, fiber.Map{
			"id":            e.ID,
			"action":        e.Action,
			"performed_by":  e.PerformedBy,
			"target_user":   e.TargetUser,
			"target_invite": e.TargetInvite,
			"target_ticket": e.TargetTicket,
			"details":       e.Details,
			"created_at":    e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"entries": out}})
}

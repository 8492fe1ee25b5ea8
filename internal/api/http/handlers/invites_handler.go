package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ayachi01/FixItWeb/internal/api/dto"
	"github.com/ayachi01/FixItWeb/internal/service"
)

// InvitesHandler exposes invite management endpoints.
type InvitesHandler struct {
	invites *service.InviteService
}

// NewInvitesHandler constructs handler.
func NewInvitesHandler(invites *service.InviteService) *InvitesHandler {
	return &InvitesHandler{invites: invites}
}

// Create handles POST /invites.
func (h *InvitesHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.InviteCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Role == "" {
		return fiber.NewError(http.StatusBadRequest, "email and role required")
	}

	invite, err := h.invites.CreateInvite(c.Context(), actor, req.Email, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"invite": dto.NewInviteResponse(invite, true)},
	})
}

// Approve handles POST /invites/:id/approve.
func (h *InvitesHandler) Approve(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.invites.ApproveInvite(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "invite approved"}})
}

// Redeem handles POST /invites/redeem/:token. Unauthenticated; the token is
// the credential.
func (h *InvitesHandler) Redeem(c *fiber.Ctx) error {
	var req dto.InviteRedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	account, err := h.invites.RedeemInvite(c.Context(), c.Params("token"), service.RedeemInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"account": accountResponse(account, nil)},
	})
}

// List handles GET /invites.
func (h *InvitesHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	invites, err := h.invites.ListInvites(c.Context(), actor, limit, offset)
	if err != nil {
		return err
	}
	out := make([]dto.InviteResponse, 0, len(invites))
	for i := range invites {
		out = append(out, dto.NewInviteResponse(&invites[i], false))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"invites": out}})
}

// ListPending handles GET /invites/pending.
func (h *InvitesHandler) ListPending(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	invites, err := h.invites.ListPendingApproval(c.Context(), actor, limit, offset)
	if err != nil {
		return err
	}
	out := make([]dto.InviteResponse, 0, len(invites))
	for i := range invites {
		out = append(out, dto.NewInviteResponse(&invites[i], false))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"invites": out}})
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ayachi01/FixItWeb/internal/api/dto"
	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/repository"
	"github.com/ayachi01/FixItWeb/internal/service"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.TicketCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.CreateTicket(c.Context(), actor, service.TicketCreateInput{
		LocationID:  req.LocationID,
		Title:       req.Title,
		Description: req.Description,
		Category:    domain.Category(req.Category),
		Urgency:     domain.Urgency(req.Urgency),
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"ticket": dto.NewTicketResponse(ticket, nil)},
	})
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	tickets, err := h.tickets.ListTicketsForActor(c.Context(), actor, repository.TicketFilter{
		Status:   domain.TicketStatus(c.Query("status")),
		Category: domain.Category(c.Query("category")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"tickets": dto.NewTicketListResponse(tickets)}})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, images, err := h.tickets.GetTicketForActor(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ticket": dto.NewTicketResponse(ticket, images)}})
}

// Assign handles POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.TicketAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.AssigneeID == "" {
		return fiber.NewError(http.StatusBadRequest, "assignee_id required")
	}

	ticket, err := h.tickets.AssignTicket(c.Context(), actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ticket": dto.NewTicketResponse(ticket, nil)}})
}

// Accept handles POST /tickets/:id/accept.
func (h *TicketsHandler) Accept(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.AcceptAssignment(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ticket": dto.NewTicketResponse(ticket, nil)}})
}

// Resolve handles POST /tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.TicketResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.ResolveTicket(c.Context(), actor, c.Params("id"), req.Note, req.ProofImageURL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ticket": dto.NewTicketResponse(ticket, nil)}})
}

// Close handles POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.CloseTicket(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ticket": dto.NewTicketResponse(ticket, nil)}})
}

// Reopen handles POST /tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.ReopenTicket(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ticket": dto.NewTicketResponse(ticket, nil)}})
}

// EligibleFixers handles GET /tickets/fixers?category=...
func (h *TicketsHandler) EligibleFixers(c *fiber.Ctx) error {
	if _, err := requireActor(c); err != nil {
		return err
	}
	profiles, err := h.tickets.EligibleFixers(c.Context(), domain.Category(c.Query("category")))
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, fiber.Map{
			"account_id": p.AccountID,
			"role":       p.Role(),
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"fixers": out}})
}

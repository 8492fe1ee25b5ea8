package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ayachi01/FixItWeb/internal/api/dto"
	"github.com/ayachi01/FixItWeb/internal/service"
)

// LocationsHandler exposes the campus location catalog.
type LocationsHandler struct {
	locations *service.LocationService
}

// NewLocationsHandler constructs handler.
func NewLocationsHandler(locations *service.LocationService) *LocationsHandler {
	return &LocationsHandler{locations: locations}
}

// Create handles POST /locations.
func (h *LocationsHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.LocationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	loc, err := h.locations.CreateLocation(c.Context(), actor, req.Building, req.Floor, req.Room)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"location": dto.NewLocationResponse(loc)},
	})
}

// List handles GET /locations.
func (h *LocationsHandler) List(c *fiber.Ctx) error {
	locations, err := h.locations.ListLocations(c.Context())
	if err != nil {
		return err
	}
	out := make([]dto.LocationResponse, 0, len(locations))
	for i := range locations {
		out = append(out, dto.NewLocationResponse(&locations[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"locations": out}})
}

// Get handles GET /locations/:id.
func (h *LocationsHandler) Get(c *fiber.Ctx) error {
	loc, err := h.locations.GetLocation(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"location": dto.NewLocationResponse(loc)}})
}

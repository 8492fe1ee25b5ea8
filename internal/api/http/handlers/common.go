package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ayachi01/FixItWeb/internal/auth"
	"github.com/ayachi01/FixItWeb/internal/service"
)

// requireActor converts the authenticated principal into a service actor.
func requireActor(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	actor := service.Actor{
		AccountID: principal.Account.ID,
		Role:      principal.Role(),
		Bundle:    principal.Bundle,
	}
	if principal.Profile != nil {
		actor.ProfileID = principal.Profile.ID
	}
	return actor, nil
}

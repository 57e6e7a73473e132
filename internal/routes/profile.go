package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/identity"
)

// RegisterProfileRoutes wires the profile endpoints.
func RegisterProfileRoutes(r fiber.Router, h *identity.Handler) {
	r.Get("/me", h.Me)
	r.Patch("/me", h.UpdateMe)
}

package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/ledger"
)

// RegisterTransactionRoutes wires transaction endpoints onto the ledger.
func RegisterTransactionRoutes(r fiber.Router, h *ledger.Handler) {
	r.Post("/transactions", h.Create)
	r.Get("/transactions", h.List)
	r.Get("/transactions/:transactionId", h.Get)
	r.Patch("/transactions/:transactionId", h.Update)
	r.Delete("/transactions/:transactionId", h.Delete)
}

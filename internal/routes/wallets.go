package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets", h.List)
	r.Get("/wallets/:walletId", h.Get)
	r.Patch("/wallets/:walletId", h.Update)
	r.Delete("/wallets/:walletId", h.Delete)
}

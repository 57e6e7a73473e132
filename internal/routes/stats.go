package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/stats"
)

// RegisterStatsRoutes wires the chart aggregation endpoints.
func RegisterStatsRoutes(r fiber.Router, h *stats.Handler) {
	r.Get("/stats/weekly", h.Weekly)
	r.Get("/stats/monthly", h.Monthly)
	r.Get("/stats/yearly", h.Yearly)
}

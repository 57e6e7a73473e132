package stats

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/middleware"
	"github.com/pocketbook/pocketbook/internal/transaction"
)

// Handler exposes the aggregation endpoints feeding the statistics charts.
type Handler struct {
	service *Service
}

// NewHandler builds a stats HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionItem struct {
	ID          string    `json:"id"`
	WalletID    string    `json:"wallet_id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

type statsResponse struct {
	Buckets      []Bucket          `json:"buckets"`
	Transactions []transactionItem `json:"transactions"`
}

// Weekly serves the trailing-week chart data.
func (h *Handler) Weekly(c *fiber.Ctx) error {
	return h.respond(c, func() (Result, error) {
		return h.service.Weekly(c.UserContext(), middleware.Owner(c))
	})
}

// Monthly serves the trailing-year chart data.
func (h *Handler) Monthly(c *fiber.Ctx) error {
	return h.respond(c, func() (Result, error) {
		return h.service.Monthly(c.UserContext(), middleware.Owner(c))
	})
}

// Yearly serves per-year chart data since the owner's first transaction.
func (h *Handler) Yearly(c *fiber.Ctx) error {
	return h.respond(c, func() (Result, error) {
		return h.service.Yearly(c.UserContext(), middleware.Owner(c))
	})
}

func (h *Handler) respond(c *fiber.Ctx, fetch func() (Result, error)) error {
	res, err := fetch()
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	items := make([]transactionItem, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		items = append(items, toItem(t))
	}
	return c.Status(http.StatusOK).JSON(statsResponse{Buckets: res.Buckets, Transactions: items})
}

func toItem(t transaction.Transaction) transactionItem {
	return transactionItem{
		ID:          t.ID,
		WalletID:    t.WalletID,
		Type:        string(t.Kind),
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
	}
}

package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/blob"
	"github.com/pocketbook/pocketbook/internal/docstore"
	"github.com/pocketbook/pocketbook/internal/middleware"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type walletRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type walletResponse struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Icon          string    `json:"icon,omitempty"`
	Balance       int64     `json:"balance"`
	TotalIncome   int64     `json:"total_income"`
	TotalExpenses int64     `json:"total_expenses"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(w Wallet) walletResponse {
	return walletResponse{
		ID:            w.ID,
		OwnerID:       w.OwnerID,
		Name:          w.Name,
		Icon:          w.IconRef,
		Balance:       w.Balance,
		TotalIncome:   w.TotalIncome,
		TotalExpenses: w.TotalExpenses,
		CreatedAt:     w.CreatedAt,
	}
}

// Create provisions a wallet for the authenticated owner.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Create(c.UserContext(), CreateInput{
		OwnerID: middleware.Owner(c),
		Name:    req.Name,
		Icon:    req.Icon,
	})
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(w))
}

// Update rewrites a wallet's descriptive fields.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Update(c.UserContext(), middleware.Owner(c), c.Params("walletId"), UpdateInput{
		Name: req.Name,
		Icon: req.Icon,
	})
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(w))
}

// Get returns one wallet.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, err := h.service.Get(c.UserContext(), middleware.Owner(c), c.Params("walletId"))
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(w))
}

// List returns the owner's wallets, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	wallets, err := h.service.List(c.UserContext(), middleware.Owner(c))
	if err != nil {
		return toHTTP(err)
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, toResponse(w))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Delete removes the wallet and cascades to its transactions.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.Owner(c), c.Params("walletId")); err != nil {
		return toHTTP(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func toHTTP(err error) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, docstore.ErrConflict):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, docstore.ErrUnavailable):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, blob.ErrUploadFailed):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

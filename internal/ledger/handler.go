package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/blob"
	"github.com/pocketbook/pocketbook/internal/docstore"
	"github.com/pocketbook/pocketbook/internal/middleware"
	"github.com/pocketbook/pocketbook/internal/transaction"
)

// Handler exposes transaction HTTP endpoints backed by the ledger service.
type Handler struct {
	service *Service
}

// NewHandler builds a transaction HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionRequest struct {
	WalletID    string    `json:"wallet_id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Receipt     string    `json:"receipt"`
}

func (r transactionRequest) draft() Draft {
	return Draft{
		WalletID:    r.WalletID,
		Kind:        transaction.Kind(r.Type),
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date,
		Receipt:     r.Receipt,
	}
}

type transactionResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	WalletID    string    `json:"wallet_id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Receipt     string    `json:"receipt,omitempty"`
}

func toResponse(t transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		WalletID:    t.WalletID,
		Type:        string(t.Kind),
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
		Receipt:     t.ReceiptRef,
	}
}

// Create records a new transaction and adjusts its wallet atomically.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	created, err := h.service.CreateTransaction(c.UserContext(), middleware.Owner(c), req.draft())
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(created))
}

// Update rewrites a transaction, migrating wallet totals when the effect
// changed.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.service.UpdateTransaction(c.UserContext(), middleware.Owner(c), c.Params("transactionId"), req.draft())
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(updated))
}

// Delete reverts and removes one transaction.
func (h *Handler) Delete(c *fiber.Ctx) error {
	err := h.service.DeleteTransaction(c.UserContext(), middleware.Owner(c), c.Params("transactionId"), c.Query("wallet_id"))
	if err != nil {
		return toHTTP(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get returns one transaction.
func (h *Handler) Get(c *fiber.Ctx) error {
	t, err := h.service.GetTransaction(c.UserContext(), middleware.Owner(c), c.Params("transactionId"))
	if err != nil {
		return toHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(t))
}

// List returns the owner's transactions, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.service.ListTransactions(c.UserContext(), middleware.Owner(c))
	if err != nil {
		return toHTTP(err)
	}
	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toResponse(t))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func toHTTP(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrCannotDelete):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, blob.ErrUploadFailed):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "not found")
	case errors.Is(err, docstore.ErrConflict):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, docstore.ErrUnavailable):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbook/pocketbook/internal/blob"
	"github.com/pocketbook/pocketbook/internal/docstore"
	"github.com/pocketbook/pocketbook/internal/transaction"
)

// cascadePageSize bounds how many transactions one cascade batch removes,
// respecting store-side batch limits regardless of history size.
const cascadePageSize = 500

// Service exposes wallet lifecycle operations. Balance arithmetic stays
// with the ledger service; this service only ever writes descriptive
// fields and the zeroed totals of a brand-new wallet.
type Service struct {
	repo         *Repository
	transactions *transaction.Repository
	blobs        blob.Store
	logger       *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(repo *Repository, transactions *transaction.Repository, blobs blob.Store, logger *slog.Logger) *Service {
	return &Service{repo: repo, transactions: transactions, blobs: blobs, logger: logger}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	OwnerID string
	Name    string
	Icon    string
}

// Create provisions a wallet with zeroed totals. The icon upload runs
// before the record is written; its failure aborts the whole create.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	if input.OwnerID == "" {
		return Wallet{}, fmt.Errorf("owner is required")
	}
	if input.Name == "" {
		return Wallet{}, fmt.Errorf("wallet name is required")
	}

	iconRef, err := s.resolveIcon(ctx, input.Icon)
	if err != nil {
		return Wallet{}, err
	}

	w := Wallet{
		OwnerID:   input.OwnerID,
		Name:      input.Name,
		IconRef:   iconRef,
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.Create(ctx, w)
}

// UpdateInput captures the descriptive fields a wallet owner may change.
type UpdateInput struct {
	Name string
	Icon string
}

// Update rewrites a wallet's name and icon, leaving the ledger-owned
// totals untouched.
func (s *Service) Update(ctx context.Context, ownerID, id string, input UpdateInput) (Wallet, error) {
	existing, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Wallet{}, err
	}
	if input.Name == "" {
		return Wallet{}, fmt.Errorf("wallet name is required")
	}

	iconRef, err := s.resolveIcon(ctx, input.Icon)
	if err != nil {
		return Wallet{}, err
	}

	if err := s.repo.UpdateMeta(ctx, existing.ID, input.Name, iconRef); err != nil {
		return Wallet{}, err
	}
	return s.repo.Get(ctx, existing.ID)
}

// Get returns a wallet owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Wallet, error) {
	return s.owned(ctx, ownerID, id)
}

// List returns the owner's wallets, most recently created first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Wallet, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Delete removes the wallet and cascades to every transaction referencing
// it, a bounded page at a time. The wallet disappears before the cascade
// completes; readers between pages may observe orphaned transactions until
// the loop finishes. Re-running against an already-deleted wallet finds
// zero remaining rows and succeeds.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	w, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
		if w.OwnerID != ownerID {
			return docstore.ErrNotFound
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
	case errors.Is(err, docstore.ErrNotFound):
		// Already deleted: fall through and drain any leftover
		// transactions, keeping an interrupted cascade resumable.
	default:
		return err
	}

	for {
		ids, err := s.transactions.PageIDsByWallet(ctx, id, cascadePageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := s.transactions.BatchDelete(ctx, ids); err != nil {
			return err
		}
		s.logger.Info("cascade batch deleted", "wallet_id", id, "count", len(ids))
	}
}

func (s *Service) owned(ctx context.Context, ownerID, id string) (Wallet, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return Wallet{}, err
	}
	if w.OwnerID != ownerID {
		return Wallet{}, docstore.ErrNotFound
	}
	return w, nil
}

func (s *Service) resolveIcon(ctx context.Context, icon string) (string, error) {
	if icon == "" {
		return "", nil
	}
	return s.blobs.Upload(ctx, icon, "wallets")
}

package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pocketbook/pocketbook/internal/blob"
	"github.com/pocketbook/pocketbook/internal/docstore"
	"github.com/pocketbook/pocketbook/internal/transaction"
	"github.com/pocketbook/pocketbook/internal/wallet"
)

// Service keeps wallet running totals consistent as transactions are
// created, edited and deleted. It is the sole writer of a wallet's
// balance, totalIncome and totalExpenses; every mutation of that triple
// runs inside one atomic store transaction.
type Service struct {
	store        docstore.Store
	wallets      *wallet.Repository
	transactions *transaction.Repository
	blobs        blob.Store
}

// NewService builds a ledger service instance.
func NewService(store docstore.Store, wallets *wallet.Repository, transactions *transaction.Repository, blobs blob.Store) *Service {
	return &Service{store: store, wallets: wallets, transactions: transactions, blobs: blobs}
}

// Draft carries the caller-supplied fields for a transaction write.
// Receipt may be a local file reference (uploaded before any store
// mutation) or an already-durable URL.
type Draft struct {
	WalletID    string
	Kind        transaction.Kind
	Amount      int64
	Category    string
	Description string
	Date        time.Time
	Receipt     string
}

func validateDraft(d Draft) error {
	if d.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if d.WalletID == "" {
		return &ValidationError{Field: "walletId", Reason: "required"}
	}
	if !d.Kind.Valid() {
		return &ValidationError{Field: "type", Reason: "must be income or expense"}
	}
	if d.Kind == transaction.KindExpense && d.Category == "" {
		return &ValidationError{Field: "category", Reason: "required for expenses"}
	}
	return nil
}

// CreateTransaction validates the draft, resolves its receipt to a durable
// URL, and posts the wallet adjustment and the transaction row as one
// atomic unit: either both land or neither does.
func (s *Service) CreateTransaction(ctx context.Context, ownerID string, d Draft) (transaction.Transaction, error) {
	if err := validateDraft(d); err != nil {
		return transaction.Transaction{}, err
	}
	if d.Date.IsZero() {
		d.Date = time.Now().UTC()
	}

	// The upload must complete (or be determined absent) before any store
	// mutation, so its failure leaves nothing behind.
	receipt, err := s.resolveReceipt(ctx, d.Receipt)
	if err != nil {
		return transaction.Transaction{}, err
	}

	created := transaction.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		WalletID:    d.WalletID,
		Kind:        d.Kind,
		Amount:      d.Amount,
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date.UTC(),
		ReceiptRef:  receipt,
	}

	err = s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		w, err := s.ownedWalletTx(ctx, tx, d.WalletID, ownerID)
		if err != nil {
			return err
		}
		applied, err := applyEffect(w, d.Kind, d.Amount)
		if err != nil {
			return err
		}
		if err := s.wallets.PutTx(ctx, tx, applied); err != nil {
			return err
		}
		return s.transactions.PutTx(ctx, tx, created)
	})
	if err != nil {
		return transaction.Transaction{}, err
	}
	return created, nil
}

// UpdateTransaction rewrites a transaction. When kind, amount or wallet
// changed, the old effect is reverted against the old wallet before the
// new effect is applied against the new wallet, all inside the same store
// transaction; any failure leaves the system exactly as it was before the
// update began.
func (s *Service) UpdateTransaction(ctx context.Context, ownerID, id string, d Draft) (transaction.Transaction, error) {
	if err := validateDraft(d); err != nil {
		return transaction.Transaction{}, err
	}

	receipt, err := s.resolveReceipt(ctx, d.Receipt)
	if err != nil {
		return transaction.Transaction{}, err
	}

	var updated transaction.Transaction
	err = s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		old, err := s.transactions.GetTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if old.OwnerID != ownerID {
			return docstore.ErrNotFound
		}

		updated = old
		updated.WalletID = d.WalletID
		updated.Kind = d.Kind
		updated.Amount = d.Amount
		updated.Category = d.Category
		updated.Description = d.Description
		updated.ReceiptRef = receipt
		if !d.Date.IsZero() {
			updated.Date = d.Date.UTC()
		}

		moved := old.Kind != d.Kind || old.Amount != d.Amount || old.WalletID != d.WalletID
		if moved {
			oldWallet, err := s.wallets.GetTx(ctx, tx, old.WalletID)
			if err != nil {
				return err
			}
			reverted, err := revertEffect(oldWallet, old.Kind, old.Amount)
			if err != nil {
				return err
			}
			if reverted.Balance < 0 {
				return ErrInsufficientFunds
			}

			if d.WalletID == old.WalletID {
				applied, err := applyEffect(reverted, d.Kind, d.Amount)
				if err != nil {
					return err
				}
				if err := s.wallets.PutTx(ctx, tx, applied); err != nil {
					return err
				}
			} else {
				newWallet, err := s.ownedWalletTx(ctx, tx, d.WalletID, ownerID)
				if err != nil {
					return err
				}
				applied, err := applyEffect(newWallet, d.Kind, d.Amount)
				if err != nil {
					return err
				}
				if err := s.wallets.PutTx(ctx, tx, reverted); err != nil {
					return err
				}
				if err := s.wallets.PutTx(ctx, tx, applied); err != nil {
					return err
				}
			}
		}

		return s.transactions.PutTx(ctx, tx, updated)
	})
	if err != nil {
		return transaction.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction reverts the transaction's effect and removes its row
// atomically. Reverting an income that would leave the balance negative is
// rejected, mirroring the creation guard.
func (s *Service) DeleteTransaction(ctx context.Context, ownerID, id, walletID string) error {
	return s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		t, err := s.transactions.GetTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if t.OwnerID != ownerID {
			return docstore.ErrNotFound
		}
		if walletID != "" && walletID != t.WalletID {
			return &ValidationError{Field: "walletId", Reason: "does not match transaction"}
		}

		w, err := s.wallets.GetTx(ctx, tx, t.WalletID)
		if err != nil {
			return err
		}
		reverted, err := revertEffect(w, t.Kind, t.Amount)
		if err != nil {
			return err
		}
		if t.Kind == transaction.KindIncome && reverted.Balance < 0 {
			return ErrCannotDelete
		}

		if err := s.wallets.PutTx(ctx, tx, reverted); err != nil {
			return err
		}
		return s.transactions.DeleteTx(ctx, tx, id)
	})
}

// ApplyNewTransaction atomically posts a single effect onto a wallet and
// returns the updated snapshot. The balance check and the write share one
// transaction; no other writer can observe an intermediate state.
func (s *Service) ApplyNewTransaction(ctx context.Context, walletID string, kind transaction.Kind, amount int64) (wallet.Wallet, error) {
	if amount <= 0 {
		return wallet.Wallet{}, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return s.mutateWallet(ctx, walletID, func(w wallet.Wallet) (wallet.Wallet, error) {
		return applyEffect(w, kind, amount)
	})
}

// RevertTransaction undoes a previously applied effect and returns the
// updated snapshot.
func (s *Service) RevertTransaction(ctx context.Context, walletID string, kind transaction.Kind, amount int64) (wallet.Wallet, error) {
	if amount <= 0 {
		return wallet.Wallet{}, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return s.mutateWallet(ctx, walletID, func(w wallet.Wallet) (wallet.Wallet, error) {
		return revertEffect(w, kind, amount)
	})
}

func (s *Service) mutateWallet(ctx context.Context, walletID string, mutate func(wallet.Wallet) (wallet.Wallet, error)) (wallet.Wallet, error) {
	var out wallet.Wallet
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		w, err := s.wallets.GetTx(ctx, tx, walletID)
		if err != nil {
			return err
		}
		next, err := mutate(w)
		if err != nil {
			return err
		}
		if err := s.wallets.PutTx(ctx, tx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return wallet.Wallet{}, err
	}
	return out, nil
}

// GetTransaction returns a transaction owned by ownerID.
func (s *Service) GetTransaction(ctx context.Context, ownerID, id string) (transaction.Transaction, error) {
	t, err := s.transactions.Get(ctx, id)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if t.OwnerID != ownerID {
		return transaction.Transaction{}, docstore.ErrNotFound
	}
	return t, nil
}

// ListTransactions returns the owner's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, ownerID string) ([]transaction.Transaction, error) {
	return s.transactions.ListByOwner(ctx, ownerID)
}

func (s *Service) resolveReceipt(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	url, err := s.blobs.Upload(ctx, ref, "transactions")
	if err != nil {
		if errors.Is(err, blob.ErrUploadFailed) {
			return "", err
		}
		return "", errors.Join(blob.ErrUploadFailed, err)
	}
	return url, nil
}

// ownedWalletTx loads a wallet inside a transaction and hides wallets
// belonging to other owners.
func (s *Service) ownedWalletTx(ctx context.Context, tx docstore.Tx, walletID, ownerID string) (wallet.Wallet, error) {
	w, err := s.wallets.GetTx(ctx, tx, walletID)
	if err != nil {
		return wallet.Wallet{}, err
	}
	if w.OwnerID != ownerID {
		return wallet.Wallet{}, docstore.ErrNotFound
	}
	return w, nil
}

package wallet

import (
	"context"

	"github.com/pocketbook/pocketbook/internal/docstore"
)

// Repository persists wallet records in the document store.
type Repository struct {
	store docstore.Store
}

// NewRepository builds a wallet repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Create inserts a wallet record, assigning an id when none is set.
func (r *Repository) Create(ctx context.Context, w Wallet) (Wallet, error) {
	id, err := r.store.Put(ctx, Collection, w.ID, encode(w), false)
	if err != nil {
		return Wallet{}, err
	}
	w.ID = id
	return w, nil
}

// Get fetches a wallet by identifier.
func (r *Repository) Get(ctx context.Context, id string) (Wallet, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return Wallet{}, err
	}
	return decode(id, doc)
}

// GetTx fetches a wallet inside a store transaction, locking it against
// concurrent writers until the transaction commits.
func (r *Repository) GetTx(ctx context.Context, tx docstore.Tx, id string) (Wallet, error) {
	doc, err := tx.Get(ctx, Collection, id)
	if err != nil {
		return Wallet{}, err
	}
	return decode(id, doc)
}

// PutTx overwrites a wallet inside a store transaction.
func (r *Repository) PutTx(ctx context.Context, tx docstore.Tx, w Wallet) error {
	return tx.Put(ctx, Collection, w.ID, encode(w), false)
}

// UpdateMeta merges descriptive fields (name, icon) without touching the
// ledger-owned totals.
func (r *Repository) UpdateMeta(ctx context.Context, id, name, iconRef string) error {
	doc := docstore.Document{fieldName: name}
	if iconRef != "" {
		doc[fieldIcon] = iconRef
	}
	_, err := r.store.Put(ctx, Collection, id, doc, true)
	return err
}

// ListByOwner returns the owner's wallets, most recently created first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Wallet, error) {
	records, err := r.store.Query(ctx, Collection,
		[]docstore.Filter{docstore.Where(fieldOwner, docstore.OpEqual, ownerID)},
		&docstore.Order{Field: fieldCreated, Desc: true}, 0)
	if err != nil {
		return nil, err
	}
	wallets := make([]Wallet, 0, len(records))
	for _, rec := range records {
		w, err := decode(rec.ID, rec.Data)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// Delete removes the wallet record only. Transaction cleanup is the cascade
// deleter's job.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, Collection, id)
}

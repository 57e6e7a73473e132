package transaction

import (
	"context"
	"time"

	"github.com/pocketbook/pocketbook/internal/docstore"
)

// Repository persists transaction records in the document store.
type Repository struct {
	store docstore.Store
}

// NewRepository builds a transaction repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Get fetches a transaction by identifier.
func (r *Repository) Get(ctx context.Context, id string) (Transaction, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return Transaction{}, err
	}
	return decode(id, doc)
}

// GetTx fetches a transaction inside a store transaction.
func (r *Repository) GetTx(ctx context.Context, tx docstore.Tx, id string) (Transaction, error) {
	doc, err := tx.Get(ctx, Collection, id)
	if err != nil {
		return Transaction{}, err
	}
	return decode(id, doc)
}

// PutTx writes a full transaction record inside a store transaction.
func (r *Repository) PutTx(ctx context.Context, tx docstore.Tx, t Transaction) error {
	return tx.Put(ctx, Collection, t.ID, encode(t), false)
}

// DeleteTx removes a transaction record inside a store transaction.
func (r *Repository) DeleteTx(ctx context.Context, tx docstore.Tx, id string) error {
	return tx.Delete(ctx, Collection, id)
}

// ListByOwner returns the owner's transactions, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Transaction, error) {
	return r.list(ctx, []docstore.Filter{
		docstore.Where(fieldOwner, docstore.OpEqual, ownerID),
	})
}

// ListByOwnerInRange returns the owner's transactions dated within
// [from, to], newest first.
func (r *Repository) ListByOwnerInRange(ctx context.Context, ownerID string, from, to time.Time) ([]Transaction, error) {
	return r.list(ctx, []docstore.Filter{
		docstore.Where(fieldOwner, docstore.OpEqual, ownerID),
		docstore.Where(fieldDate, docstore.OpGreaterOrEqual, docstore.FormatTime(from)),
		docstore.Where(fieldDate, docstore.OpLessOrEqual, docstore.FormatTime(to)),
	})
}

func (r *Repository) list(ctx context.Context, filters []docstore.Filter) ([]Transaction, error) {
	records, err := r.store.Query(ctx, Collection, filters,
		&docstore.Order{Field: fieldDate, Desc: true}, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(records))
	for _, rec := range records {
		t, err := decode(rec.ID, rec.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// PageIDsByWallet returns up to limit transaction ids referencing the
// wallet, in no particular order. Used by the cascade deleter.
func (r *Repository) PageIDsByWallet(ctx context.Context, walletID string, limit int) ([]string, error) {
	records, err := r.store.Query(ctx, Collection,
		[]docstore.Filter{docstore.Where(fieldWallet, docstore.OpEqual, walletID)}, nil, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// BatchDelete removes the given transactions as one atomic batch.
func (r *Repository) BatchDelete(ctx context.Context, ids []string) error {
	return r.store.BatchDelete(ctx, Collection, ids)
}

package identity

import (
	"context"

	"github.com/pocketbook/pocketbook/internal/docstore"
)

// Repository reads user records and persists profile updates.
type Repository struct {
	store docstore.Store
}

// NewRepository builds a user repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Get fetches a user by identifier.
func (r *Repository) Get(ctx context.Context, id string) (User, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:      id,
		Name:    docstore.String(doc, fieldName),
		Email:   docstore.String(doc, fieldEmail),
		IconRef: docstore.String(doc, fieldIcon),
	}, nil
}

// UpdateProfile merges the mutable profile fields into the user record.
// The uid and email stay under the identity provider's control.
func (r *Repository) UpdateProfile(ctx context.Context, id, name, iconRef string) error {
	doc := docstore.Document{fieldName: name}
	if iconRef != "" {
		doc[fieldIcon] = iconRef
	}
	_, err := r.store.Put(ctx, Collection, id, doc, true)
	return err
}

package identity

import (
	"context"
	"fmt"

	"github.com/pocketbook/pocketbook/internal/blob"
)

// Service exposes the profile operations this core performs on user
// records. Authentication itself belongs to the identity provider.
type Service struct {
	repo  *Repository
	blobs blob.Store
}

// NewService builds an identity service instance.
func NewService(repo *Repository, blobs blob.Store) *Service {
	return &Service{repo: repo, blobs: blobs}
}

// Get returns the user record for an owner id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.Get(ctx, id)
}

// UpdateProfileInput captures the profile fields a user may change.
type UpdateProfileInput struct {
	Name string
	Icon string
}

// UpdateProfile uploads a new avatar when one is supplied, then merges the
// profile fields. The upload failure aborts the whole update.
func (s *Service) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (User, error) {
	if input.Name == "" {
		return User{}, fmt.Errorf("name is required")
	}

	iconRef := ""
	if input.Icon != "" {
		var err error
		iconRef, err = s.blobs.Upload(ctx, input.Icon, "users")
		if err != nil {
			return User{}, err
		}
	}

	if err := s.repo.UpdateProfile(ctx, id, input.Name, iconRef); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, id)
}

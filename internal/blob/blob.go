package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUploadFailed indicates the blob backend rejected or failed an upload.
// A failed upload aborts the whole surrounding operation; no document is
// ever written pointing at a receipt or icon that does not exist.
var ErrUploadFailed = errors.New("upload failed")

// Store turns a local image reference into a durable URL. Passing an
// already-durable reference (an http(s) URL) is an idempotent no-op.
type Store interface {
	Upload(ctx context.Context, localRef, folder string) (string, error)
}

// StaticStore simulates a blob backend by minting deterministic-looking
// URLs. Useful for dev mode and tests.
type StaticStore struct {
	BaseURL string
}

// Upload returns a synthetic durable URL under the configured base.
func (s StaticStore) Upload(_ context.Context, localRef, folder string) (string, error) {
	if isDurable(localRef) {
		return localRef, nil
	}
	base := s.BaseURL
	if base == "" {
		base = "https://blobs.invalid"
	}
	return fmt.Sprintf("%s/%s/%s", base, folder, uuid.NewString()), nil
}

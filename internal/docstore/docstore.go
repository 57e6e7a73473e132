package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict indicates a transaction lost a write race and retries
	// were exhausted.
	ErrConflict = errors.New("transaction conflict")

	// ErrUnavailable indicates the backing store could not be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// Document is the JSON-like payload persisted for a single record. Values
// are restricted to JSON primitives; timestamps are stored as RFC 3339
// strings so ordering and range filters behave identically across backends.
type Document map[string]any

// Record pairs a document with its identifier for query results.
type Record struct {
	ID   string
	Data Document
}

// Filter constrains a query to documents matching field op value. The
// comparison uses the document's textual field form.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// Op enumerates supported filter comparisons.
type Op string

const (
	OpEqual          Op = "=="
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
)

// Where builds a filter clause.
func Where(field string, op Op, value string) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Order describes the sort applied to query results.
type Order struct {
	Field string
	Desc  bool
}

// Tx exposes point reads and writes inside an atomic transaction. Reads
// performed through a Tx are isolated from concurrent writers until the
// transaction commits.
type Tx interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Put(ctx context.Context, collection, id string, doc Document, merge bool) error
	Delete(ctx context.Context, collection, id string) error
}

// Store is the persistence contract consumed by the repositories.
type Store interface {
	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns documents matching every filter, optionally ordered
	// and limited. A limit of zero means unbounded.
	Query(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Record, error)

	// Put writes a document. An empty id requests a generated identifier;
	// the assigned id is returned. With merge set, existing fields not
	// present in doc are preserved.
	Put(ctx context.Context, collection, id string, doc Document, merge bool) (string, error)

	// Delete removes a document. Deleting a missing document is a no-op.
	Delete(ctx context.Context, collection, id string) error

	// RunTransaction executes fn atomically. On a write conflict the whole
	// fn is re-executed from a fresh read, up to a bounded number of
	// attempts, after which ErrConflict is returned.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	// BatchDelete removes the given documents as one atomic batch.
	BatchDelete(ctx context.Context, collection string, ids []string) error
}

// storedTimeLayout keeps the fractional seconds fixed-width. RFC3339Nano
// trims trailing zeros, which breaks the lexicographic comparison the
// backends apply to date filters ("...00.5Z" sorts before "...00Z").
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders a timestamp in the canonical stored form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// ParseTime reads a timestamp in the canonical stored form.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

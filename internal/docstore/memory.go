package docstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]Document
}

// NewMemory creates a concurrency-safe in-memory store useful for dev mode
// and unit tests. Transactions are serialized under one lock, so the
// conflict-retry path never triggers.
func NewMemory() Store {
	return &memoryStore{collections: make(map[string]map[string]Document)}
}

func (s *memoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(collection, id)
}

func (s *memoryStore) getLocked(collection, id string) (Document, error) {
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (s *memoryStore) Query(_ context.Context, collection string, filters []Filter, order *Order, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for id, doc := range s.collections[collection] {
		if matchesFilters(doc, filters) {
			out = append(out, Record{ID: id, Data: cloneDocument(doc)})
		}
	}

	if order != nil {
		sort.Slice(out, func(i, j int) bool {
			a, _ := fieldText(out[i].Data, order.Field)
			b, _ := fieldText(out[j].Data, order.Field)
			if order.Desc {
				return a > b
			}
			return a < b
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) Put(_ context.Context, collection, id string, doc Document, merge bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	s.putLocked(collection, id, doc, merge)
	return id, nil
}

func (s *memoryStore) putLocked(collection, id string, doc Document, merge bool) {
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]Document)
		s.collections[collection] = col
	}
	if merge {
		if existing, ok := col[id]; ok {
			merged := cloneDocument(existing)
			for k, v := range doc {
				merged[k] = v
			}
			col[id] = merged
			return
		}
	}
	col[id] = cloneDocument(doc)
}

func (s *memoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *memoryStore) BatchDelete(_ context.Context, collection string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.collections[collection], id)
	}
	return nil
}

// RunTransaction holds the store lock for the duration of fn and stages all
// writes, so a failing fn leaves the store untouched and concurrent
// transactions never interleave.
func (s *memoryStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, writes: make(map[[2]string]Document), deletes: make(map[[2]string]bool)}
	if err := fn(tx); err != nil {
		return err
	}
	// Check cancellation before committing: applying the staged writes and
	// then reporting failure would leave the caller unsure whether the
	// transaction landed.
	if err := ctx.Err(); err != nil {
		return err
	}

	for key, doc := range tx.writes {
		s.putLocked(key[0], key[1], doc, false)
	}
	for key := range tx.deletes {
		delete(s.collections[key[0]], key[1])
	}
	return nil
}

type memoryTx struct {
	store   *memoryStore
	writes  map[[2]string]Document
	deletes map[[2]string]bool
}

func (t *memoryTx) Get(_ context.Context, collection, id string) (Document, error) {
	key := [2]string{collection, id}
	if t.deletes[key] {
		return nil, ErrNotFound
	}
	if doc, ok := t.writes[key]; ok {
		return cloneDocument(doc), nil
	}
	return t.store.getLocked(collection, id)
}

func (t *memoryTx) Put(ctx context.Context, collection, id string, doc Document, merge bool) error {
	key := [2]string{collection, id}
	if merge && !t.deletes[key] {
		base, err := t.Get(ctx, collection, id)
		if err == nil {
			for k, v := range doc {
				base[k] = v
			}
			doc = base
		}
	}
	delete(t.deletes, key)
	t.writes[key] = cloneDocument(doc)
	return nil
}

func (t *memoryTx) Delete(_ context.Context, collection, id string) error {
	key := [2]string{collection, id}
	delete(t.writes, key)
	t.deletes[key] = true
	return nil
}

func matchesFilters(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fieldText(doc, f.Field)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if v != f.Value {
				return false
			}
		case OpGreaterOrEqual:
			if v < f.Value {
				return false
			}
		case OpLessOrEqual:
			if v > f.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

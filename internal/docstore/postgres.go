package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const txMaxAttempts = 3

// PostgresStore keeps every collection in a single documents table with a
// jsonb payload, mirroring the key/collection addressing of the contract.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed store.
func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the documents table and its query indexes.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
            collection text NOT NULL,
            id text NOT NULL,
            data jsonb NOT NULL,
            PRIMARY KEY (collection, id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_documents_wallet ON documents (collection, (data->>'walletId'))`,
		`CREATE INDEX IF NOT EXISTS idx_documents_owner_date ON documents (collection, (data->>'uid'), (data->>'date'))`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	row := s.db.QueryRow(ctx, `SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	return scanDocument(row)
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Record, error) {
	sql, args := buildQuery(collection, filters, order, limit)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Record{ID: id, Data: doc})
	}
	return out, rows.Err()
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, doc Document, merge bool) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	if _, err := s.db.Exec(ctx, putSQL(merge), collection, id, raw); err != nil {
		return "", classify(err)
	}
	return id, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	return classify(err)
}

func (s *PostgresStore) BatchDelete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = ANY($2)`, collection, ids)
	return classify(err)
}

// RunTransaction executes fn inside a database transaction. Reads take row
// locks, so two concurrent callers mutating the same wallet serialize
// instead of losing an update. Serialization failures and transient
// connection errors restart fn from a fresh read up to txMaxAttempts.
func (s *PostgresStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	if errors.Is(lastErr, ErrUnavailable) {
		return lastErr
	}
	return fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (s *PostgresStore) runOnce(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Get(ctx context.Context, collection, id string) (Document, error) {
	row := t.tx.QueryRow(ctx, `SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`, collection, id)
	return scanDocument(row)
}

func (t *pgTx) Put(ctx context.Context, collection, id string, doc Document, merge bool) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, putSQL(merge), collection, id, raw)
	return classify(err)
}

func (t *pgTx) Delete(ctx context.Context, collection, id string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	return classify(err)
}

func putSQL(merge bool) string {
	if merge {
		return `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
            ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data`
	}
	return `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
        ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`
}

func buildQuery(collection string, filters []Filter, order *Order, limit int) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range filters {
		op := "="
		switch f.Op {
		case OpGreaterOrEqual:
			op = ">="
		case OpLessOrEqual:
			op = "<="
		}
		args = append(args, f.Field, f.Value)
		fmt.Fprintf(&sb, ` AND data->>$%d %s $%d`, len(args)-1, op, len(args))
	}

	if order != nil {
		args = append(args, order.Field)
		direction := "ASC"
		if order.Desc {
			direction = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY data->>$%d %s`, len(args), direction)
	}

	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	return sb.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify(err)
	}
	return decodeDocument(raw)
}

// decodeDocument keeps numbers as json.Number so int64 amounts survive the
// round trip without float truncation.
func decodeDocument(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return errors.Is(err, ErrUnavailable)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

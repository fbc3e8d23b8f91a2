// Package sqlitestore implements state.Backend on a single SQLite table.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-cart/pkg/state"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cart_state (
	state_key   TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	snapshot_id TEXT NOT NULL DEFAULT '',
	updated_at  TEXT NOT NULL DEFAULT ''
);`

// Backend stores records in the cart_state table.
type Backend struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it. Use
// ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %q: %w", path, err)
	}
	// one connection keeps ":memory:" databases alive and serialises writers
	db.SetMaxOpenConns(1)
	backend, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return backend, nil
}

// New wraps an existing handle and runs the migration.
func New(ctx context.Context, db *sql.DB) (*Backend, error) {
	if db == nil {
		return nil, errors.New("sqlitestore: db is required")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("sqlitestore: migrate: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Get(ctx context.Context, key string) (state.Record, bool, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT payload, snapshot_id, updated_at FROM cart_state WHERE state_key = ?`, key)

	var (
		payload    []byte
		snapshotID string
		updatedAt  string
	)
	if err := row.Scan(&payload, &snapshotID, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.Record{}, false, nil
		}
		return state.Record{}, false, fmt.Errorf("sqlitestore: get %q: %w", key, err)
	}

	record := state.Record{Payload: payload, Meta: state.Meta{SnapshotID: snapshotID}}
	if updatedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			record.Meta.UpdatedAt = ts
		}
	}
	return record, true, nil
}

func (b *Backend) Put(ctx context.Context, key string, record state.Record) error {
	updatedAt := ""
	if !record.Meta.UpdatedAt.IsZero() {
		updatedAt = record.Meta.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO cart_state (state_key, payload, snapshot_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(state_key) DO UPDATE SET
			payload = excluded.payload,
			snapshot_id = excluded.snapshot_id,
			updated_at = excluded.updated_at`,
		key, record.Payload, record.Meta.SnapshotID, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: put %q: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM cart_state WHERE state_key = ?`, key); err != nil {
		return fmt.Errorf("sqlitestore: delete %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying handle.
func (b *Backend) Close() error {
	return b.db.Close()
}

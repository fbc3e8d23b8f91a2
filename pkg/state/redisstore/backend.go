// Package redisstore implements state.Backend on Redis hashes.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-cart/pkg/state"
)

const (
	fieldPayload    = "payload"
	fieldSnapshotID = "snapshot_id"
	fieldUpdatedAt  = "updated_at"
)

// Backend stores one hash per key under Prefix.
type Backend struct {
	client redis.UniversalClient
	prefix string
}

// New wraps client. prefix namespaces every key ("cart:" when empty).
func New(client redis.UniversalClient, prefix string) (*Backend, error) {
	if client == nil {
		return nil, errors.New("redisstore: client is required")
	}
	if prefix == "" {
		prefix = "cart:"
	}
	return &Backend{client: client, prefix: prefix}, nil
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr, password string, db int, prefix string) (*Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping %s: %w", addr, err)
	}
	return New(client, prefix)
}

func (b *Backend) key(key string) string {
	return b.prefix + key
}

func (b *Backend) Get(ctx context.Context, key string) (state.Record, bool, error) {
	values, err := b.client.HGetAll(ctx, b.key(key)).Result()
	if err != nil {
		return state.Record{}, false, fmt.Errorf("redisstore: get %q: %w", key, err)
	}
	payload, ok := values[fieldPayload]
	if !ok {
		return state.Record{}, false, nil
	}
	record := state.Record{
		Payload: []byte(payload),
		Meta:    state.Meta{SnapshotID: values[fieldSnapshotID]},
	}
	if raw := values[fieldUpdatedAt]; raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
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
	err := b.client.HSet(ctx, b.key(key),
		fieldPayload, record.Payload,
		fieldSnapshotID, record.Meta.SnapshotID,
		fieldUpdatedAt, updatedAt,
	).Err()
	if err != nil {
		return fmt.Errorf("redisstore: put %q: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.key(key)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (b *Backend) Close() error {
	return b.client.Close()
}

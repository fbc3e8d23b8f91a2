package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrOriginRequired is returned by Ref.Identifier for an empty origin.
	ErrOriginRequired = errors.New("state: origin is required")
	// ErrKeyRequired is returned by Ref.Identifier for an empty key.
	ErrKeyRequired = errors.New("state: key is required")
)

// Ref identifies one persisted entry for one page origin.
type Ref struct {
	Origin string
	Key    string
}

// Identifier returns the canonical storage key "origin/key".
func (r Ref) Identifier() (string, error) {
	origin := strings.TrimSpace(r.Origin)
	key := strings.TrimSpace(r.Key)
	if origin == "" {
		return "", ErrOriginRequired
	}
	if key == "" {
		return "", ErrKeyRequired
	}
	return fmt.Sprintf("%s/%s", origin, key), nil
}

// Meta is storage-owned metadata stamped on every save.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Record is what a Backend keeps for one key.
type Record struct {
	Payload []byte
	Meta    Meta
}

// Backend is a durable key-value store for raw payloads.
type Backend interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Put(ctx context.Context, key string, record Record) error
	Delete(ctx context.Context, key string) error
}

// Store loads and saves one typed snapshot for a Ref.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T) (Meta, error)
}

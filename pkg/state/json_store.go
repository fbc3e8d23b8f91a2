package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JSONStoreOption configures a JSONStore.
type JSONStoreOption func(*jsonStoreConfig)

type jsonStoreConfig struct {
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// WithLogger routes decode warnings to logger.
func WithLogger(logger *zap.Logger) JSONStoreOption {
	return func(cfg *jsonStoreConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithClock overrides the UpdatedAt source.
func WithClock(now func() time.Time) JSONStoreOption {
	return func(cfg *jsonStoreConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithSnapshotIDs overrides the SnapshotID generator.
func WithSnapshotIDs(newID func() string) JSONStoreOption {
	return func(cfg *jsonStoreConfig) {
		if newID != nil {
			cfg.newID = newID
		}
	}
}

// JSONStore is a Store that JSON-encodes snapshots into a Backend.
type JSONStore[T any] struct {
	backend Backend
	cfg     jsonStoreConfig
}

func NewJSONStore[T any](backend Backend, opts ...JSONStoreOption) *JSONStore[T] {
	cfg := jsonStoreConfig{
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &JSONStore[T]{backend: backend, cfg: cfg}
}

// Load returns ok=false when the key is absent or its payload does not
// decode. Only backend failures are returned as errors.
func (s *JSONStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	if s.backend == nil {
		return zero, Meta{}, false, fmt.Errorf("state: backend is required")
	}
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	record, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: load %q: %w", key, err)
	}
	if !ok || len(record.Payload) == 0 {
		return zero, Meta{}, false, nil
	}

	var snapshot T
	if err := json.Unmarshal(record.Payload, &snapshot); err != nil {
		s.cfg.logger.Warn("malformed persisted state, falling back to defaults",
			zap.String("key", key),
			zap.Int("bytes", len(record.Payload)),
			zap.Error(err),
		)
		return zero, Meta{}, false, nil
	}
	return snapshot, record.Meta, true, nil
}

// Save encodes snapshot and writes it synchronously.
func (s *JSONStore[T]) Save(ctx context.Context, ref Ref, snapshot T) (Meta, error) {
	if s.backend == nil {
		return Meta{}, fmt.Errorf("state: backend is required")
	}
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %q: %w", key, err)
	}
	meta := Meta{
		SnapshotID: s.cfg.newID(),
		UpdatedAt:  s.cfg.now().UTC(),
	}
	if err := s.backend.Put(ctx, key, Record{Payload: payload, Meta: meta}); err != nil {
		return Meta{}, fmt.Errorf("state: save %q: %w", key, err)
	}
	return meta, nil
}

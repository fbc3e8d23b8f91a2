package state

import (
	"context"
	"fmt"

	"github.com/goliatone/go-cart/layering"
)

// Resolver loads a persisted snapshot and layers it over defaults.
type Resolver[T any] struct {
	Store Store[T]
}

// ResolveWithDefaults returns defaults overlaid by whatever is persisted under
// ref. A missing or malformed entry yields defaults unchanged with a zero Meta.
func (r Resolver[T]) ResolveWithDefaults(ctx context.Context, ref Ref, defaults T) (T, Meta, error) {
	if r.Store == nil {
		return defaults, Meta{}, fmt.Errorf("state: store is required")
	}

	layers := []layering.Layer[T]{
		layering.NewLayer("defaults", layering.PriorityDefaults, defaults, ""),
	}
	snapshot, meta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return defaults, Meta{}, err
	}
	if ok {
		layers = append(layers, layering.NewLayer("persisted", layering.PriorityPersisted, snapshot, meta.SnapshotID))
	}

	stack, err := layering.NewStack(layers...)
	if err != nil {
		return defaults, Meta{}, fmt.Errorf("state: stack: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return defaults, Meta{}, err
	}
	return merged, meta, nil
}

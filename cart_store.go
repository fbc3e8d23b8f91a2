package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-cart/pkg/activity"
	"github.com/goliatone/go-cart/pkg/state"
	"go.uber.org/zap"
)

// CartStore owns the ordered line items and writes them through to storage
// after every mutation. Mutations never fail: a rejected write is logged and
// reported while the in-memory change stands.
type CartStore struct {
	mu    sync.Mutex
	items []LineItem
	meta  state.Meta

	store state.Store[[]LineItem]
	ref   state.Ref
	cfg   storeConfig
}

// NewCartStore builds an empty store persisting under ref.
func NewCartStore(backend state.Backend, ref state.Ref, opts ...StoreOption) *CartStore {
	cfg := applyStoreOptions(opts)
	return &CartStore{
		items: []LineItem{},
		store: state.NewJSONStore[[]LineItem](backend, state.WithLogger(cfg.logger)),
		ref:   ref,
		cfg:   cfg,
	}
}

// Hydrate replaces the in-memory cart with the persisted one. Missing or
// malformed data yields an empty cart. Entries with an empty id or a
// non-positive quantity are dropped and duplicate ids are folded into their
// first occurrence.
func (s *CartStore) Hydrate(ctx context.Context) error {
	resolver := state.Resolver[[]LineItem]{Store: s.store}
	items, meta, err := resolver.ResolveWithDefaults(ctx, s.ref, []LineItem{})

	s.mu.Lock()
	if err != nil {
		s.items = []LineItem{}
		s.meta = state.Meta{}
	} else {
		s.items = normalizeItems(items)
		s.meta = meta
	}
	count := len(s.items)
	s.mu.Unlock()

	if err != nil {
		s.cfg.logger.Warn("cart hydrate failed, starting empty", zap.String("key", s.ref.Key), zap.Error(err))
		return fmt.Errorf("cart: hydrate cart: %w", err)
	}
	s.cfg.logger.Debug("cart hydrated", zap.Int("lines", count), zap.String("snapshot_id", meta.SnapshotID))
	s.cfg.changed(ctx)
	return nil
}

// AddItem increments the quantity of product.ID, appending a new line with
// quantity 1 when absent. An existing line keeps its name, price and image.
// It returns the resulting quantity, or 0 when product has no id.
func (s *CartStore) AddItem(ctx context.Context, product Product) int {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		s.cfg.logger.Warn("ignoring product without id", zap.String("name", product.Name))
		return 0
	}

	s.mu.Lock()
	quantity := 1
	if idx := s.indexOf(id); idx >= 0 {
		s.items[idx].Quantity++
		quantity = s.items[idx].Quantity
	} else {
		s.items = append(s.items, LineItem{
			ID:        id,
			Name:      product.Name,
			UnitPrice: ClampPrice(product.Price),
			Image:     product.Image,
			Quantity:  1,
		})
	}
	snapshotID := s.persistLocked(ctx)
	s.mu.Unlock()

	s.cfg.emit(ctx, activity.BuildItemAddedEvent(activity.CartEventInput{
		Origin:     s.ref.Origin,
		ItemID:     id,
		Quantity:   quantity,
		SnapshotID: snapshotID,
	}))
	s.cfg.changed(ctx)
	return quantity
}

// RemoveItem decrements the quantity of id, dropping the line at zero. An
// unknown id is a no-op. It returns the remaining quantity.
func (s *CartStore) RemoveItem(ctx context.Context, id string) int {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return 0
	}
	remaining := s.items[idx].Quantity - 1
	if remaining > 0 {
		s.items[idx].Quantity = remaining
	} else {
		remaining = 0
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	}
	snapshotID := s.persistLocked(ctx)
	s.mu.Unlock()

	s.cfg.emit(ctx, activity.BuildItemRemovedEvent(activity.CartEventInput{
		Origin:     s.ref.Origin,
		ItemID:     id,
		Quantity:   remaining,
		SnapshotID: snapshotID,
	}))
	s.cfg.changed(ctx)
	return remaining
}

// Reset empties the cart and persists the empty state.
func (s *CartStore) Reset(ctx context.Context) {
	s.mu.Lock()
	s.items = []LineItem{}
	snapshotID := s.persistLocked(ctx)
	s.mu.Unlock()

	s.cfg.emit(ctx, activity.BuildCartClearedEvent(activity.CartEventInput{
		Origin:     s.ref.Origin,
		SnapshotID: snapshotID,
	}))
	s.cfg.changed(ctx)
}

// ComputeTotals sums the current items.
func (s *CartStore) ComputeTotals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SumItems(s.items)
}

// Items returns a copy of the current lines in insertion order.
func (s *CartStore) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineItem{}, s.items...)
}

// Quantity returns the quantity held for id.
func (s *CartStore) Quantity(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx].Quantity
	}
	return 0
}

// Len returns the number of distinct lines.
func (s *CartStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Meta returns the metadata of the last successful load or save.
func (s *CartStore) Meta() state.Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

func (s *CartStore) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the current items. Callers hold s.mu.
func (s *CartStore) persistLocked(ctx context.Context) string {
	meta, err := s.store.Save(ctx, s.ref, s.items)
	if err != nil {
		err = fmt.Errorf("%w: cart: %w", ErrPersist, err)
		s.cfg.logger.Error("cart save failed", zap.String("key", s.ref.Key), zap.Error(err))
		s.cfg.reporter.Report(ctx, err)
		return ""
	}
	s.meta = meta
	return meta.SnapshotID
}

func normalizeItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		if at, seen := index[item.ID]; seen {
			out[at].Quantity += item.Quantity
			continue
		}
		item.UnitPrice = ClampPrice(item.UnitPrice)
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-cart/pkg/activity"
	"github.com/goliatone/go-cart/pkg/state"
	"go.uber.org/zap"
)

// OptionsStore owns payment method, fulfillment and delivery address. Every
// setter writes through immediately. Without a policy any string is accepted
// verbatim.
type OptionsStore struct {
	mu      sync.Mutex
	options CartOptions
	meta    state.Meta

	store state.Store[optionsRecord]
	ref   state.Ref
	cfg   storeConfig
}

// NewOptionsStore builds a store holding DefaultOptions.
func NewOptionsStore(backend state.Backend, ref state.Ref, opts ...StoreOption) *OptionsStore {
	cfg := applyStoreOptions(opts)
	return &OptionsStore{
		options: DefaultOptions(),
		store:   state.NewJSONStore[optionsRecord](backend, state.WithLogger(cfg.logger)),
		ref:     ref,
		cfg:     cfg,
	}
}

// Hydrate layers persisted options over DefaultOptions. Persisted keys win,
// unknown keys are ignored and absent keys keep their default.
func (s *OptionsStore) Hydrate(ctx context.Context) error {
	resolver := state.Resolver[optionsRecord]{Store: s.store}
	record, meta, err := resolver.ResolveWithDefaults(ctx, s.ref, recordFromOptions(DefaultOptions()))

	s.mu.Lock()
	if err != nil {
		s.options = DefaultOptions()
		s.meta = state.Meta{}
	} else {
		s.options = record.options()
		s.meta = meta
	}
	s.mu.Unlock()

	if err != nil {
		s.cfg.logger.Warn("options hydrate failed, using defaults", zap.String("key", s.ref.Key), zap.Error(err))
		return fmt.Errorf("cart: hydrate options: %w", err)
	}
	s.cfg.changed(ctx)
	return nil
}

// SetPaymentMethod stores value as the payment method.
func (s *OptionsStore) SetPaymentMethod(ctx context.Context, value string) error {
	return s.Set(ctx, FieldPaymentMethod, value)
}

// SetFulfillmentType stores value as the fulfillment type.
func (s *OptionsStore) SetFulfillmentType(ctx context.Context, value string) error {
	return s.Set(ctx, FieldFulfillment, value)
}

// SetDeliveryAddress stores value as the delivery address.
func (s *OptionsStore) SetDeliveryAddress(ctx context.Context, value string) error {
	return s.Set(ctx, FieldDeliveryAddress, value)
}

// Set overwrites field with value and persists. Only an unknown field or a
// rejecting policy return an error; persistence failures are reported.
func (s *OptionsStore) Set(ctx context.Context, field, value string) error {
	s.mu.Lock()
	previous, known := s.options.Field(field)
	if !known {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownOption, field)
	}

	if err := s.cfg.policy.Check(field, value, s.options); err != nil {
		if s.cfg.policy.Mode() == PolicyReject {
			s.mu.Unlock()
			s.cfg.logger.Info("option value rejected", zap.String("field", field), zap.String("value", value), zap.Error(err))
			return err
		}
		var optErr *OptionError
		if errors.As(err, &optErr) && optErr.Err != nil {
			s.cfg.logger.Warn("option rule failed to evaluate, accepting value", zap.String("field", field), zap.Error(err))
		} else {
			s.cfg.logger.Warn("unvalidated option value accepted", zap.String("field", field), zap.String("value", value))
		}
	}

	switch field {
	case FieldPaymentMethod:
		s.options.PaymentMethod = value
	case FieldFulfillment:
		s.options.Fulfillment = value
	case FieldDeliveryAddress:
		s.options.DeliveryAddress = value
	}
	snapshotID := s.persistLocked(ctx)
	s.mu.Unlock()

	s.cfg.emit(ctx, activity.BuildOptionUpdatedEvent(activity.CartEventInput{
		Origin:     s.ref.Origin,
		Field:      field,
		OldValue:   previous,
		NewValue:   value,
		SnapshotID: snapshotID,
	}))
	s.cfg.changed(ctx)
	return nil
}

// Reset restores DefaultOptions and persists them.
func (s *OptionsStore) Reset(ctx context.Context) {
	s.mu.Lock()
	s.options = DefaultOptions()
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.cfg.changed(ctx)
}

// Options returns the current options.
func (s *OptionsStore) Options() CartOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// Meta returns the metadata of the last successful load or save.
func (s *OptionsStore) Meta() state.Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

func (s *OptionsStore) persistLocked(ctx context.Context) string {
	meta, err := s.store.Save(ctx, s.ref, recordFromOptions(s.options))
	if err != nil {
		err = fmt.Errorf("%w: options: %w", ErrPersist, err)
		s.cfg.logger.Error("options save failed", zap.String("key", s.ref.Key), zap.Error(err))
		s.cfg.reporter.Report(ctx, err)
		return ""
	}
	s.meta = meta
	return meta.SnapshotID
}

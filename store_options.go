package cart

import (
	"context"

	"github.com/goliatone/go-cart/pkg/activity"
	"go.uber.org/zap"
)

// StoreOption configures CartStore and OptionsStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	logger   *zap.Logger
	reporter ErrorReporter
	emitter  *activity.Emitter
	onChange []func(context.Context)
	policy   *OptionsPolicy
	actorID  string
}

// WithLogger sets the store logger. Defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(cfg *storeConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithErrorReporter receives persistence failures.
func WithErrorReporter(reporter ErrorReporter) StoreOption {
	return func(cfg *storeConfig) {
		if reporter != nil {
			cfg.reporter = reporter
		}
	}
}

// WithEmitter publishes activity events for every mutation.
func WithEmitter(emitter *activity.Emitter) StoreOption {
	return func(cfg *storeConfig) {
		cfg.emitter = emitter
	}
}

// WithActor stamps activity events with actorID.
func WithActor(actorID string) StoreOption {
	return func(cfg *storeConfig) {
		cfg.actorID = actorID
	}
}

// WithOnChange registers fn to run after each mutation, outside the store
// lock.
func WithOnChange(fn func(context.Context)) StoreOption {
	return func(cfg *storeConfig) {
		if fn != nil {
			cfg.onChange = append(cfg.onChange, fn)
		}
	}
}

// WithPolicy validates option values. Only OptionsStore reads it.
func WithPolicy(policy *OptionsPolicy) StoreOption {
	return func(cfg *storeConfig) {
		cfg.policy = policy
	}
}

func applyStoreOptions(opts []StoreOption) storeConfig {
	cfg := storeConfig{
		logger:   zap.NewNop(),
		reporter: noopReporter{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg storeConfig) changed(ctx context.Context) {
	for _, fn := range cfg.onChange {
		fn(ctx)
	}
}

func (cfg storeConfig) emit(ctx context.Context, event activity.Event) {
	if !cfg.emitter.Enabled() {
		return
	}
	if event.ActorID == "" {
		event.ActorID = cfg.actorID
	}
	if err := cfg.emitter.Emit(ctx, event); err != nil {
		cfg.logger.Warn("activity emit failed", zap.String("verb", event.Verb), zap.Error(err))
	}
}

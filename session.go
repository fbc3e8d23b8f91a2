package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-cart/pkg/activity"
	"github.com/goliatone/go-cart/pkg/state"
	"go.uber.org/zap"
)

// Default persisted keys, shared with the storefront page.
const (
	DefaultCartKey    = "gmAttelierCart"
	DefaultOptionsKey = "gmAttelierCartOptions"
)

// SessionConfig collects the collaborators of a Session. Backend, Origin and
// Navigator are required.
type SessionConfig struct {
	Backend    state.Backend
	Origin     string
	CartKey    string
	OptionsKey string

	Phone     string
	BaseURL   string
	Template  *Template
	Navigator Navigator

	Capturer       Capturer
	ArtifactSink   ArtifactSink
	CaptureTimeout time.Duration
	Warner         Warner

	Policy                 *OptionsPolicy
	ResetOptionsOnCheckout bool

	Emitter   *activity.Emitter
	ActorID   string
	Logger    *zap.Logger
	Reporter  ErrorReporter
	Renderers []Renderer
}

// Session is the composition root: it owns both stores and the orchestrator
// and routes commands to them.
type Session struct {
	Cart     *CartStore
	Options  *OptionsStore
	Checkout *Orchestrator

	template  Template
	logger    *zap.Logger
	mu        sync.RWMutex
	renderers []Renderer
}

// NewSession validates cfg and wires a Session. Call Init before use.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Backend == nil {
		return nil, errors.New("cart: session backend is required")
	}
	if strings.TrimSpace(cfg.Origin) == "" {
		return nil, state.ErrOriginRequired
	}
	if cfg.Navigator == nil {
		return nil, errors.New("cart: session navigator is required")
	}
	if cfg.CartKey == "" {
		cfg.CartKey = DefaultCartKey
	}
	if cfg.OptionsKey == "" {
		cfg.OptionsKey = DefaultOptionsKey
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl := DefaultTemplate()
	if cfg.Template != nil {
		tmpl = *cfg.Template
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = LogReporter(logger)
	}

	s := &Session{
		template:  tmpl,
		logger:    logger,
		renderers: append([]Renderer(nil), cfg.Renderers...),
	}

	storeOpts := []StoreOption{
		WithLogger(logger),
		WithErrorReporter(reporter),
		WithEmitter(cfg.Emitter),
		WithActor(cfg.ActorID),
		WithOnChange(s.publish),
	}
	s.Cart = NewCartStore(cfg.Backend, state.Ref{Origin: cfg.Origin, Key: cfg.CartKey}, storeOpts...)
	s.Options = NewOptionsStore(cfg.Backend, state.Ref{Origin: cfg.Origin, Key: cfg.OptionsKey},
		append(storeOpts, WithPolicy(cfg.Policy))...)
	s.Checkout = NewOrchestrator(s.Cart, s.Options, NewComposer(tmpl), NewLinkBuilder(cfg.BaseURL, cfg.Phone), cfg.Navigator,
		WithCapturer(cfg.Capturer),
		WithArtifactSink(cfg.ArtifactSink),
		WithCaptureTimeout(cfg.CaptureTimeout),
		WithWarner(cfg.Warner),
		WithResetOptions(cfg.ResetOptionsOnCheckout),
		WithCheckoutLogger(logger),
		WithCheckoutEmitter(cfg.Emitter),
	)
	return s, nil
}

// Init hydrates both stores from storage. Read failures fall back to defaults
// and are returned joined; the session stays usable either way.
func (s *Session) Init(ctx context.Context) error {
	cartErr := s.Cart.Hydrate(ctx)
	optionsErr := s.Options.Hydrate(ctx)
	if err := errors.Join(cartErr, optionsErr); err != nil {
		s.publish(ctx)
		return err
	}
	s.logger.Debug("cart session initialized", zap.Int("lines", s.Cart.Len()))
	return nil
}

// Reset empties the cart and restores default options, persisting both.
func (s *Session) Reset(ctx context.Context) {
	s.Cart.Reset(ctx)
	s.Options.Reset(ctx)
}

// Subscribe registers renderer for future snapshots.
func (s *Session) Subscribe(renderer Renderer) {
	if renderer == nil {
		return
	}
	s.mu.Lock()
	s.renderers = append(s.renderers, renderer)
	s.mu.Unlock()
}

// Snapshot returns the current read-only view.
func (s *Session) Snapshot() Snapshot {
	return NewSnapshot(s.Cart.Items(), s.Options.Options(), s.template)
}

// Template returns the message template the session formats amounts with.
func (s *Session) Template() Template {
	return s.template
}

// Dispatch routes cmd to the owning component. Result is only populated for
// CheckoutCommand.
func (s *Session) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case AddItemCommand:
		s.Cart.AddItem(ctx, c.Product)
	case RemoveItemCommand:
		s.Cart.RemoveItem(ctx, c.ID)
	case SetOptionCommand:
		return Result{}, s.Options.Set(ctx, c.Field, c.Value)
	case CheckoutCommand:
		return s.Checkout.Checkout(ctx)
	case ClearCartCommand:
		s.Cart.Reset(ctx)
	case nil:
		return Result{}, fmt.Errorf("%w: nil", ErrUnknownCommand)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.CommandName())
	}
	return Result{}, nil
}

func (s *Session) publish(ctx context.Context) {
	s.mu.RLock()
	renderers := append([]Renderer(nil), s.renderers...)
	s.mu.RUnlock()
	if len(renderers) == 0 {
		return
	}
	snapshot := s.Snapshot()
	for _, renderer := range renderers {
		renderer.Render(ctx, snapshot)
	}
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-cart/pkg/activity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a checkout orchestrator state.
type State string

const (
	StateIdle      State = "idle"
	StateComposing State = "composing"
	StateHandoff   State = "handoff"
	StateCleared   State = "cleared"
)

// Artifact is the output of a visual capture of the cart.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Capturer produces a visual artifact of the cart. It is best-effort.
type Capturer interface {
	Capture(ctx context.Context, snapshot Snapshot) (Artifact, error)
}

// CapturerFunc adapts a function to Capturer.
type CapturerFunc func(ctx context.Context, snapshot Snapshot) (Artifact, error)

// Capture implements Capturer.
func (f CapturerFunc) Capture(ctx context.Context, snapshot Snapshot) (Artifact, error) {
	return f(ctx, snapshot)
}

// ArtifactSink offers a captured artifact to the shopper and returns where it
// ended up.
type ArtifactSink interface {
	Offer(ctx context.Context, artifact Artifact) (string, error)
}

// Warner shows a user-visible warning.
type Warner interface {
	Warn(ctx context.Context, message string)
}

// WarnerFunc adapts a function to Warner.
type WarnerFunc func(ctx context.Context, message string)

// Warn implements Warner.
func (f WarnerFunc) Warn(ctx context.Context, message string) {
	if f != nil {
		f(ctx, message)
	}
}

// Result describes one checkout attempt. Path lists every state visited,
// starting and ending in StateIdle.
type Result struct {
	ID               string
	Message          string
	URL              string
	Artifact         *Artifact
	ArtifactLocation string
	Path             []State
}

// CheckoutOption configures an Orchestrator.
type CheckoutOption func(*Orchestrator)

// WithCapturer enables the best-effort capture step.
func WithCapturer(capturer Capturer) CheckoutOption {
	return func(o *Orchestrator) {
		o.capturer = capturer
	}
}

// WithArtifactSink receives successful captures.
func WithArtifactSink(sink ArtifactSink) CheckoutOption {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// WithWarner receives the empty-cart warning.
func WithWarner(warner Warner) CheckoutOption {
	return func(o *Orchestrator) {
		if warner != nil {
			o.warner = warner
		}
	}
}

// WithCaptureTimeout bounds the capture step. Zero waits for the capturer.
func WithCaptureTimeout(timeout time.Duration) CheckoutOption {
	return func(o *Orchestrator) {
		o.captureTimeout = timeout
	}
}

// WithResetOptions also restores default options after a handoff.
func WithResetOptions(enabled bool) CheckoutOption {
	return func(o *Orchestrator) {
		o.resetOptions = enabled
	}
}

// WithCheckoutLogger sets the orchestrator logger.
func WithCheckoutLogger(logger *zap.Logger) CheckoutOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCheckoutEmitter publishes checkout activity events.
func WithCheckoutEmitter(emitter *activity.Emitter) CheckoutOption {
	return func(o *Orchestrator) {
		o.emitter = emitter
	}
}

// WithCheckoutIDs overrides the checkout id generator.
func WithCheckoutIDs(newID func() string) CheckoutOption {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// Orchestrator sequences capture, composition, handoff and clearing.
// Checkouts are serialized.
type Orchestrator struct {
	cart      *CartStore
	options   *OptionsStore
	composer  Composer
	links     LinkBuilder
	navigator Navigator

	capturer       Capturer
	sink           ArtifactSink
	warner         Warner
	captureTimeout time.Duration
	resetOptions   bool
	logger         *zap.Logger
	emitter        *activity.Emitter
	newID          func() string

	run   sync.Mutex
	mu    sync.Mutex
	state State
}

// NewOrchestrator wires the checkout flow.
func NewOrchestrator(cart *CartStore, options *OptionsStore, composer Composer, links LinkBuilder, navigator Navigator, opts ...CheckoutOption) *Orchestrator {
	o := &Orchestrator{
		cart:      cart,
		options:   options,
		composer:  composer,
		links:     links,
		navigator: navigator,
		warner:    WarnerFunc(nil),
		logger:    zap.NewNop(),
		newID:     uuid.NewString,
		state:     StateIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

type captureOutcome struct {
	artifact Artifact
	err      error
}

// Checkout runs one checkout. An empty cart returns ErrEmptyCart without
// touching any state. A failed handoff leaves the cart intact.
func (o *Orchestrator) Checkout(ctx context.Context) (Result, error) {
	o.run.Lock()
	defer o.run.Unlock()

	result := Result{ID: o.newID(), Path: []State{StateIdle}}
	logger := o.logger.With(zap.String("checkout_id", result.ID))

	items := o.cart.Items()
	if len(items) == 0 {
		o.warner.Warn(ctx, o.composer.Template().EmptyCartWarning)
		logger.Info("checkout aborted: empty cart")
		return result, ErrEmptyCart
	}
	options := o.options.Options()
	snapshot := NewSnapshot(items, options, o.composer.Template())

	o.transition(&result, StateComposing)
	captured := o.startCapture(ctx, snapshot)
	result.Message = o.composer.BuildOrderMessage(items, options, snapshot.TotalText)
	o.finishCapture(ctx, logger, captured, &result)

	o.transition(&result, StateHandoff)
	link, err := o.links.Build(result.Message)
	if err == nil {
		result.URL = link
		err = o.navigate(ctx, link)
	}
	if err != nil {
		logger.Error("checkout handoff failed, cart kept", zap.Error(err))
		o.emit(ctx, activity.BuildCheckoutFailedEvent(activity.CartEventInput{
			Origin:     o.cart.ref.Origin,
			CheckoutID: result.ID,
			Metadata:   map[string]any{"error": err.Error()},
		}))
		o.transition(&result, StateIdle)
		return result, fmt.Errorf("cart: handoff: %w", err)
	}

	o.transition(&result, StateCleared)
	o.cart.Reset(ctx)
	if o.resetOptions {
		o.options.Reset(ctx)
	}
	o.emit(ctx, activity.BuildCheckoutCompletedEvent(activity.CartEventInput{
		Origin:     o.cart.ref.Origin,
		CheckoutID: result.ID,
		Metadata: map[string]any{
			"total":          snapshot.Total.StringFixed(2),
			"count":          snapshot.Count,
			"lines":          len(items),
			"payment_method": options.PaymentMethod,
			"fulfillment":    options.Fulfillment,
			"artifact":       result.ArtifactLocation,
		},
	}))
	logger.Info("checkout completed", zap.Int("count", snapshot.Count), zap.String("total", snapshot.TotalText))

	o.transition(&result, StateIdle)
	return result, nil
}

func (o *Orchestrator) navigate(ctx context.Context, link string) error {
	if o.navigator == nil {
		return errors.New("cart: no navigator configured")
	}
	return o.navigator.Navigate(ctx, link)
}

// startCapture launches the capturer in its own goroutine. The returned
// channel is buffered so the goroutine never blocks on send.
func (o *Orchestrator) startCapture(ctx context.Context, snapshot Snapshot) <-chan captureOutcome {
	if o.capturer == nil {
		return nil
	}
	done := make(chan captureOutcome, 1)
	go func() {
		captureCtx := ctx
		if o.captureTimeout > 0 {
			var cancel context.CancelFunc
			captureCtx, cancel = context.WithTimeout(ctx, o.captureTimeout)
			defer cancel()
		}
		artifact, err := o.capturer.Capture(captureCtx, snapshot)
		done <- captureOutcome{artifact: artifact, err: err}
	}()
	return done
}

func (o *Orchestrator) finishCapture(ctx context.Context, logger *zap.Logger, done <-chan captureOutcome, result *Result) {
	if done == nil {
		return
	}
	var timeout <-chan time.Time
	if o.captureTimeout > 0 {
		timer := time.NewTimer(o.captureTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	var outcome captureOutcome
	select {
	case outcome = <-done:
	case <-timeout:
		logger.Warn("cart capture timed out, continuing text-only", zap.Duration("timeout", o.captureTimeout))
		return
	case <-ctx.Done():
		logger.Warn("cart capture abandoned, continuing text-only", zap.Error(ctx.Err()))
		return
	}
	if outcome.err != nil {
		logger.Warn("cart capture failed, continuing text-only", zap.Error(outcome.err))
		return
	}
	artifact := outcome.artifact
	result.Artifact = &artifact
	if o.sink == nil {
		return
	}
	location, err := o.sink.Offer(ctx, artifact)
	if err != nil {
		logger.Warn("artifact offer failed", zap.String("artifact", artifact.Name), zap.Error(err))
		return
	}
	result.ArtifactLocation = location
}

func (o *Orchestrator) transition(result *Result, next State) {
	o.mu.Lock()
	o.state = next
	o.mu.Unlock()
	result.Path = append(result.Path, next)
}

func (o *Orchestrator) emit(ctx context.Context, event activity.Event) {
	if !o.emitter.Enabled() {
		return
	}
	if err := o.emitter.Emit(ctx, event); err != nil {
		o.logger.Warn("activity emit failed", zap.String("verb", event.Verb), zap.Error(err))
	}
}

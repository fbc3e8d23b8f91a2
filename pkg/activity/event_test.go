package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " cart.item.added ",
		ActorID:    " actor ",
		UserID:     " user ",
		TenantID:   " tenant ",
		Origin:     " https://shop.example ",
		ObjectType: " cart.item ",
		ObjectID:   " sku-1 ",
		Channel:    " cart ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "cart.item.added" || got.ObjectType != "cart.item" || got.ObjectID != "sku-1" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "cart" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.Origin != "https://shop.example" {
		t.Fatalf("expected origin trimmed, got %q", got.Origin)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifySkipsInvalidEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: "cart.cleared"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events()))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbItemAdded, ObjectType: ObjectItem, ObjectID: "1"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events()) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events()))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: VerbCartCleared, ObjectType: ObjectCart, ObjectID: "origin"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true, Origin: "https://shop.example"})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	events := capture.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(events))
	}
	if events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", events[0].Channel)
	}
	if events[0].Origin != "https://shop.example" {
		t.Fatalf("expected default origin applied, got %q", events[0].Origin)
	}
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *Emitter
	if emitter.Enabled() {
		t.Fatalf("nil emitter must be disabled")
	}
	if err := emitter.Emit(context.Background(), Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "storefront"})
	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbItemAdded,
		ObjectType: ObjectItem,
		ObjectID:   "1",
		Channel:    "custom",
		OccurredAt: when,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	got := capture.Events()[0]
	if got.Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", got.Channel)
	}
	if !got.OccurredAt.Equal(when) {
		t.Fatalf("expected occurred_at preserved, got %v", got.OccurredAt)
	}
}

func TestEventSubject(t *testing.T) {
	event := BuildItemAddedEvent(CartEventInput{ItemID: " vase-01 ", Quantity: 1})
	if got := event.Subject(); got != "cart.item:vase-01" {
		t.Fatalf("unexpected subject %q", got)
	}
	cleared := BuildCartClearedEvent(CartEventInput{Origin: "https://shop.example"})
	if got := cleared.Subject(); got != "cart:https://shop.example" {
		t.Fatalf("unexpected subject %q", got)
	}
}

// Package activity fans cart lifecycle events out to pluggable hooks.
package activity

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"
)

// Event records one change to a cart. The subject is the line item, option
// field, cart or checkout named by ObjectType and ObjectID; Origin is the
// storefront the cart belongs to.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	Origin     string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Valid reports whether the event names a verb and a subject.
func (e Event) Valid() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Subject returns "objectType:objectID", e.g. "cart.item:vase-01".
func (e Event) Subject() string {
	return e.ObjectType + ":" + e.ObjectID
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify implements ActivityHook.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks delivers one event to several hooks.
type Hooks []ActivityHook

// Notify normalizes event once and hands the same copy to every hook. Events
// without a verb or subject never reach the hooks. Every hook runs even when
// an earlier one fails; the failures come back joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	event = NormalizeEvent(event)
	if len(h) == 0 || !event.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var failures []error
	for _, hook := range h {
		if hook != nil {
			failures = append(failures, hook.Notify(ctx, event))
		}
	}
	return errors.Join(failures...)
}

// NormalizeEvent trims every identifier, copies metadata so hooks cannot
// mutate the caller's map, and stamps OccurredAt when unset.
func NormalizeEvent(event Event) Event {
	for _, field := range []*string{
		&event.Verb, &event.ActorID, &event.UserID, &event.TenantID,
		&event.Origin, &event.ObjectType, &event.ObjectID, &event.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	event.Metadata = cloneMetadata(event.Metadata)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}

package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the cart stores and the checkout orchestrator.
const (
	VerbItemAdded         = "cart.item.added"
	VerbItemRemoved       = "cart.item.removed"
	VerbCartCleared       = "cart.cleared"
	VerbOptionUpdated     = "cart.option.updated"
	VerbCheckoutCompleted = "cart.checkout.completed"
	VerbCheckoutFailed    = "cart.checkout.failed"
)

// Object types attached to cart events.
const (
	ObjectItem     = "cart.item"
	ObjectCart     = "cart"
	ObjectOption   = "cart.option"
	ObjectCheckout = "cart.checkout"
)

// CartEventInput carries the fields shared by all cart events. Only the ones
// relevant to a given builder are read.
type CartEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Origin     string
	Channel    string
	ItemID     string
	Quantity   int
	Field      string
	OldValue   any
	NewValue   any
	CheckoutID string
	SnapshotID string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildItemAddedEvent describes an item quantity going up by one.
func BuildItemAddedEvent(input CartEventInput) Event {
	event := buildCartEvent(VerbItemAdded, ObjectItem, input.ItemID, input)
	event.Metadata["quantity"] = input.Quantity
	return event
}

// BuildItemRemovedEvent describes an item quantity going down by one. A zero
// quantity means the line was dropped.
func BuildItemRemovedEvent(input CartEventInput) Event {
	event := buildCartEvent(VerbItemRemoved, ObjectItem, input.ItemID, input)
	event.Metadata["quantity"] = input.Quantity
	return event
}

// BuildCartClearedEvent describes a cart reset.
func BuildCartClearedEvent(input CartEventInput) Event {
	return buildCartEvent(VerbCartCleared, ObjectCart, input.Origin, input)
}

// BuildOptionUpdatedEvent describes one option field changing.
func BuildOptionUpdatedEvent(input CartEventInput) Event {
	event := buildCartEvent(VerbOptionUpdated, ObjectOption, input.Field, input)
	event.Metadata["field"] = input.Field
	if input.OldValue != nil {
		event.Metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		event.Metadata["new_value"] = input.NewValue
	}
	return event
}

// BuildCheckoutCompletedEvent describes a handoff that cleared the cart.
func BuildCheckoutCompletedEvent(input CartEventInput) Event {
	return buildCartEvent(VerbCheckoutCompleted, ObjectCheckout, input.CheckoutID, input)
}

// BuildCheckoutFailedEvent describes a checkout that stopped before clearing.
func BuildCheckoutFailedEvent(input CartEventInput) Event {
	return buildCartEvent(VerbCheckoutFailed, ObjectCheckout, input.CheckoutID, input)
}

func buildCartEvent(verb, objectType, objectID string, input CartEventInput) Event {
	metadata := cloneMetadata(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if input.SnapshotID != "" {
		metadata["snapshot_id"] = input.SnapshotID
	}

	objectID = strings.TrimSpace(objectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Origin)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		Origin:     strings.TrimSpace(input.Origin),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

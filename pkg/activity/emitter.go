package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events that do not name one.
const DefaultChannel = "cart"

// Config controls emission defaults supplied by configuration.
type Config struct {
	Enabled bool
	Channel string
	Origin  string
}

// Emitter fans out events to hooks while applying defaults.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	origin  string
}

// NewEmitter constructs an emitter from hooks and configuration.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	normalized := compactHooks(hooks)
	return &Emitter{
		hooks:   normalized,
		enabled: cfg.Enabled && len(normalized) > 0,
		channel: channel,
		origin:  strings.TrimSpace(cfg.Origin),
	}
}

// Enabled reports whether emissions should be attempted. A nil emitter is
// valid and never emits.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit forwards event to all hooks, filling channel and origin when missing.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.Origin) == "" {
		event.Origin = e.origin
	}
	return e.hooks.Notify(ctx, event)
}

func compactHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	compacted := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			compacted = append(compacted, hook)
		}
	}
	if len(compacted) == 0 {
		return nil
	}
	return compacted
}

// Package events implements single-pass event handler dispatch.
// Handlers observe committed ledger changes; they cannot emit further events.
package events

import "github.com/nathoo/monovoice/types"

// Handler observes one event.
type Handler func(types.Event)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Bus routes events to handlers registered per event type.
type Bus struct {
	handlers map[string][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// On registers a handler for an event type, or for all types with Wildcard.
func (b *Bus) On(eventType string, h Handler) {
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Dispatch runs matching handlers in registration order. Single pass.
func (b *Bus) Dispatch(events []types.Event) {
	if b == nil {
		return
	}
	for _, event := range events {
		for _, h := range b.handlers[event.Type] {
			h(event)
		}
		for _, h := range b.handlers[Wildcard] {
			h(event)
		}
	}
}

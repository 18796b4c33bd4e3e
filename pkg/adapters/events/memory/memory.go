package memory

import (
	"context"
	"sync"

	"github.com/aescanero/warden/pkg/ports"
)

// EventBus implements ports.EventBus using in-memory handlers.
// This is for testing purposes only.
type EventBus struct {
	subscribers []ports.EventHandler
	mu          sync.RWMutex
}

// NewEventBus creates a new in-memory event bus
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Publish delivers an event to all subscribers (ports.EventBus interface)
func (e *EventBus) Publish(ctx context.Context, event ports.Event) error {
	e.mu.RLock()
	handlers := make([]ports.EventHandler, len(e.subscribers))
	copy(handlers, e.subscribers)
	e.mu.RUnlock()

	for _, handler := range handlers {
		// Handler errors do not affect publication
		_ = handler(ctx, event)
	}

	return nil
}

// Subscribe registers a handler for lifecycle events (ports.EventBus interface)
func (e *EventBus) Subscribe(ctx context.Context, handler ports.EventHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers = append(e.subscribers, handler)
	return nil
}

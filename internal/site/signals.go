package site

import (
	"context"
	"fmt"
	"sync"
)

// EventConfigured fires once per build after the configuration is loaded
// and before any page is rendered.
const EventConfigured = "configured"

// Handler is called with the site that emitted the event.
type Handler func(ctx context.Context, s *Site) error

// Signals dispatches named lifecycle events to connected handlers in
// connection order.
type Signals struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewSignals creates an empty signal bus.
func NewSignals() *Signals {
	return &Signals{handlers: make(map[string][]Handler)}
}

// Connect registers fn for event.
func (g *Signals) Connect(event string, fn Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[event] = append(g.handlers[event], fn)
}

// Emit calls every handler of event with s. It stops at the first error.
func (g *Signals) Emit(ctx context.Context, event string, s *Site) error {
	g.mu.RLock()
	handlers := append([]Handler(nil), g.handlers[event]...)
	g.mu.RUnlock()

	for _, fn := range handlers {
		if err := fn(ctx, s); err != nil {
			return fmt.Errorf("%s handler: %w", event, err)
		}
	}
	return nil
}

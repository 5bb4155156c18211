// CLAUDE:SUMMARY User-interaction event payloads and the handler bus views register on.
// Package event carries user interactions from the browser client to the
// handlers views register. The client listens for every bound (mount, type)
// pair, prevents the browser default, and posts an Event.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Type is the DOM event type.
type Type string

const (
	Submit     Type = "submit"
	Click      Type = "click"
	HashChange Type = "hashchange"
	Load       Type = "load"
)

// Window is the mount name for window-level listeners.
const Window = "window"

// ErrNoHandler is returned by Dispatch when nothing is bound to an event.
var ErrNoHandler = errors.New("event: no handler")

// Event is one user interaction.
type Event struct {
	Type  Type   `json:"type"`
	Mount string `json:"mount"`
	// Target is the pre-order element index of the event target within the
	// mount; -1 is the mount element itself.
	Target int               `json:"target"`
	Form   map[string]string `json:"form,omitempty"` // submit payload
	Hash   string            `json:"hash,omitempty"` // location hash without '#'
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event)

// Binding is a (mount, type) pair the client must listen to.
type Binding struct {
	Mount string `json:"mount"`
	Type  Type   `json:"type"`
}

// Bus routes events to handlers. Registration order is dispatch order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Binding][]Handler
	order    []Binding
	logger   *slog.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{handlers: make(map[Binding][]Handler), logger: logger}
}

// On binds h to events of type typ on mount.
func (b *Bus) On(mount string, typ Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := Binding{Mount: mount, Type: typ}
	if _, ok := b.handlers[k]; !ok {
		b.order = append(b.order, k)
	}
	b.handlers[k] = append(b.handlers[k], h)
}

// Dispatch runs every handler bound to ev's mount and type, in order.
func (b *Bus) Dispatch(ctx context.Context, ev Event) error {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[Binding{Mount: ev.Mount, Type: ev.Type}]...)
	b.mu.RUnlock()

	if len(hs) == 0 {
		return fmt.Errorf("%w: %s on %s", ErrNoHandler, ev.Type, ev.Mount)
	}
	b.logger.Debug("event: dispatch", "type", ev.Type, "mount", ev.Mount, "target", ev.Target, "handlers", len(hs))
	for _, h := range hs {
		h(ctx, ev)
	}
	return nil
}

// Bindings lists the bound pairs in registration order.
func (b *Bus) Bindings() []Binding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Binding(nil), b.order...)
}

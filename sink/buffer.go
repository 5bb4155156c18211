// CLAUDE:SUMMARY Buffer sink — holds batches until an HTTP response drains them.
package sink

import (
	"context"
	"sync"

	"github.com/hazyhaar/larder/mutation"
)

// Buffer accumulates batches in order. It is the fallback path for clients
// without a websocket: each POST /events response drains it.
type Buffer struct {
	mu      sync.Mutex
	pending []mutation.Batch
	max     int
}

// NewBuffer creates a Buffer holding at most max batches; older batches are
// dropped first. max <= 0 means unbounded.
func NewBuffer(max int) *Buffer {
	return &Buffer{max: max}
}

func (b *Buffer) Send(_ context.Context, batch mutation.Batch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, batch)
	if b.max > 0 && len(b.pending) > b.max {
		b.pending = append([]mutation.Batch(nil), b.pending[len(b.pending)-b.max:]...)
	}
	return nil
}

// Drain returns the pending batches and empties the buffer.
func (b *Buffer) Drain() []mutation.Batch {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

// Len returns the number of pending batches.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Buffer) Close() error { return nil }

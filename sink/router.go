package sink

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hazyhaar/larder/mutation"
)

// Router fans batches out to all attached sinks. One sink error does not
// block the others; errors are logged and the first is returned. Sinks can
// be attached and detached while batches flow.
type Router struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Attach adds s to the fan-out.
func (r *Router) Attach(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Detach removes s from the fan-out without closing it.
func (r *Router) Detach(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.sinks[:0]
	for _, x := range r.sinks {
		if x != s {
			kept = append(kept, x)
		}
	}
	r.sinks = kept
}

func (r *Router) Send(ctx context.Context, batch mutation.Batch) error {
	r.mu.RLock()
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.RUnlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.Send(ctx, batch); err != nil {
			r.logger.Warn("sink: send batch failed", "mount", batch.Mount, "seq", batch.Seq, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	r.mu.Lock()
	sinks := r.sinks
	r.sinks = nil
	r.mu.Unlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// CLAUDE:SUMMARY In-process callback sink delivering batches via Go function calls with zero serialisation.
package sink

import (
	"context"

	"github.com/hazyhaar/larder/mutation"
)

// BatchFunc is called for each batch.
type BatchFunc func(ctx context.Context, batch mutation.Batch) error

// Callback delivers batches via a Go function call.
type Callback struct {
	onBatch BatchFunc
}

// NewCallback creates a Callback sink. A nil handler drops batches.
func NewCallback(onBatch BatchFunc) *Callback {
	return &Callback{onBatch: onBatch}
}

func (c *Callback) Send(ctx context.Context, batch mutation.Batch) error {
	if c.onBatch != nil {
		return c.onBatch(ctx, batch)
	}
	return nil
}

func (c *Callback) Close() error { return nil }

// Package sink defines output backends for mutation batches produced by a
// live session.
package sink

import (
	"context"

	"github.com/hazyhaar/larder/mutation"
)

// Sink delivers batches to one backend (in-process callback, JSON lines,
// HTTP response buffer, websocket).
type Sink interface {
	Send(ctx context.Context, batch mutation.Batch) error
	Close() error
}

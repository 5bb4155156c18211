// CLAUDE:SUMMARY Websocket sink writing each batch as a JSON text message on a gorilla connection.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hazyhaar/larder/mutation"
)

// WebSocket writes batches to a single client connection. gorilla
// connections allow one concurrent writer, so writes are serialised.
type WebSocket struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// NewWebSocket wraps conn. writeTimeout <= 0 defaults to 10s.
func NewWebSocket(conn *websocket.Conn, writeTimeout time.Duration) *WebSocket {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &WebSocket{conn: conn, writeTimeout: writeTimeout}
}

func (w *WebSocket) Send(ctx context.Context, batch mutation.Batch) error {
	data, err := json.Marshal(envelope{Type: "batch", Data: batch})
	if err != nil {
		return fmt.Errorf("websocket: marshal: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	deadline := time.Now().Add(w.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	w.conn.SetWriteDeadline(deadline)
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("websocket: write: %w", err)
	}
	return nil
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.conn.Close()
}

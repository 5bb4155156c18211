// CLAUDE:SUMMARY HTTP surface of live sessions — page, event POST with batch replies, websocket stream, static client.
package live

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hazyhaar/larder/event"
	"github.com/hazyhaar/larder/mutation"
	"github.com/hazyhaar/larder/sink"
)

const maxEventBytes = 64 << 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Handler serves sessions over HTTP.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a Handler over m.
func NewHandler(m *Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{manager: m, logger: logger}
}

// Routes mounts the live endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.page)
	r.Post("/events", h.events)
	r.Get("/ws", h.socket)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(Static()))))
}

// page starts a session and serves its page.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Create()
	if err != nil {
		h.logger.Error("live: create session", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.RenderPage(r.Context(), w); err != nil {
		h.logger.Error("live: render page", "session", s.ID(), "error", err)
	}
}

type eventRequest struct {
	Session string      `json:"session"`
	Event   event.Event `json:"event"`
}

// events runs one event and answers with the batches it produced.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s, err := h.manager.Get(req.Session)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := s.Dispatch(r.Context(), req.Event); err != nil {
		switch {
		case errors.Is(err, event.ErrNoHandler):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, ErrSessionClosed):
			writeError(w, http.StatusNotFound, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	data, err := mutation.MarshalBatches(s.Drain())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// socket streams batches to the client and reads its events.
func (h *Handler) socket(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(r.URL.Query().Get("session"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live: websocket upgrade", "session", s.ID(), "error", err)
		return
	}
	conn.SetReadLimit(maxEventBytes)

	ws := sink.NewWebSocket(conn, h.manager.Config().WriteTimeout)
	if err := s.Attach(r.Context(), ws); err != nil {
		ws.Close()
		return
	}
	defer ws.Close()
	defer s.Detach(ws)
	h.logger.Debug("live: websocket attached", "session", s.ID())

	for {
		var ev event.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("live: websocket read", "session", s.ID(), "error", err)
			}
			return
		}
		if err := s.Dispatch(r.Context(), ev); err != nil {
			h.logger.Warn("live: dispatch", "session", s.ID(), "type", ev.Type, "mount", ev.Mount, "error", err)
			if errors.Is(err, ErrSessionClosed) {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

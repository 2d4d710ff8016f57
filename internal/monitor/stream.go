package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/robocleaner/armd/internal/events"
	"github.com/robocleaner/armd/internal/logging"
)

// writeWait bounds how long a broadcast waits on one slow observer before
// dropping it.
const writeWait = time.Second

// Hub fans applied-update JSON out to connected websocket observers. The
// stream is one-way and lossy: observers that cannot keep up are dropped,
// and nothing an observer sends is read beyond the close handshake.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// The metrics port is operator-facing; the control wire has
			// its own listener and never passes through here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades the request and registers the observer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Observer upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	logging.Info("Observer connected",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int("observers", n),
	)

	// Reader goroutine exists only to notice the peer going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// Broadcast sends the update to every observer.
func (h *Hub) Broadcast(u events.Update) {
	payload, err := json.Marshal(u)
	if err != nil {
		logging.Error("Marshal update for stream", zap.Error(err))
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(c)
		}
	}
}

// drop removes and closes one observer.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, known := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if known {
		_ = conn.Close()
		logging.Info("Observer disconnected")
	}
}

// Close disconnects all observers and rejects future ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = c.Close()
	}
}

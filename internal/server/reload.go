package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/basalt-ssg/basalt/internal/logging"
)

// ReloadPath is the websocket endpoint browsers connect to for reload
// notifications.
const ReloadPath = "/__basalt/reload"

var reloadMessage = []byte(`{"type":"reload"}`)

// ReloadHub tracks connected browsers and notifies them after successful
// rebuilds so pages can refresh themselves.
type ReloadHub struct {
	logger logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewReloadHub creates an empty hub.
func NewReloadHub(logger logging.Logger) *ReloadHub {
	return &ReloadHub{
		logger: logger.WithComponent("reload"),
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket and keeps the connection
// registered until the peer closes it.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Debug(r.Context(), "websocket accept failed", "error", err.Error())
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Block until the client goes away; clients never send payloads.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.drop(conn, websocket.StatusNormalClosure)
}

// Broadcast notifies every connected client; clients that fail the write
// are dropped.
func (h *ReloadHub) Broadcast(ctx context.Context) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.Write(ctx, websocket.MessageText, reloadMessage); err != nil {
			h.drop(conn, websocket.StatusGoingAway)
		}
	}
}

// Close disconnects all clients.
func (h *ReloadHub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *ReloadHub) drop(conn *websocket.Conn, status websocket.StatusCode) {
	h.mu.Lock()
	_, present := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()

	if present {
		_ = conn.Close(status, "")
	}
}

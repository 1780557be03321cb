// Package ws fans domain events out to connected shell frontends over
// WebSocket.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/skyharbor-io/opsdeck/internal/infrastructure/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Terminals connect from kiosk hosts on the airport LAN
	},
}

// clientBuffer is the per-connection outbound queue. A client that cannot
// drain this many events is dropped rather than allowed to stall the hub.
const clientBuffer = 64

type event struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan event
}

// Hub manages WebSocket connections and broadcasts domain events to all of
// them. It satisfies the state store's notifier interface.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger.Named("ws"),
	}
}

// HandleConnection upgrades the request and serves the connection until the
// peer goes away.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan event, clientBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Client connected", zap.Int("clients", count))

	go h.writeLoop(cl)

	// Welcome frame so the frontend knows the stream is live.
	h.offer(cl, event{Type: "system", Payload: "Connected to opsdeck event stream", Timestamp: time.Now().Unix()})

	h.readLoop(cl)
}

// offer queues an event for a single client if it is still registered.
// Membership check and send happen under the read lock; drop removes the
// client under the write lock before closing its channel, so a send here
// can never hit a closed channel.
func (h *Hub) offer(cl *client, ev event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[cl]; !ok {
		return
	}
	select {
	case cl.send <- ev:
	default:
	}
}

// Broadcast queues an event for every connected client. Slow clients are
// disconnected instead of blocking the caller.
func (h *Hub) Broadcast(eventType string, payload any) {
	ev := event{Type: eventType, Payload: payload, Timestamp: time.Now().Unix()}

	h.mu.RLock()
	stalled := make([]*client, 0)
	for cl := range h.clients {
		select {
		case cl.send <- ev:
		default:
			stalled = append(stalled, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range stalled {
		h.logger.Warn("Dropping stalled client")
		h.drop(cl)
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		h.drop(cl)
	}
}

func (h *Hub) readLoop(cl *client) {
	defer h.drop(cl)
	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := cl.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			h.offer(cl, event{Type: "pong", Timestamp: time.Now().Unix()})
		}
		// Anything else is ignored; the stream is one-way.
	}
}

func (h *Hub) writeLoop(cl *client) {
	for ev := range cl.send {
		if err := cl.conn.WriteJSON(ev); err != nil {
			h.drop(cl)
			return
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, cl)
	h.mu.Unlock()

	close(cl.send)
	cl.conn.Close()
}

package broadcast

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vitalcare-backend/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub is the websocket observer serving dashboard clients
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool

	// serializes writes; gorilla allows one concurrent writer per connection
	writeMu sync.Mutex

	greeting     func() ([]byte, error)
	obs          observability.Observability
	writeTimeout time.Duration
}

// NewHub creates a hub. greeting builds the message sent to each new client.
func NewHub(greeting func() ([]byte, error), obs observability.Observability) *Hub {
	if obs == nil {
		obs = observability.Nop{}
	}
	return &Hub{
		conns:        make(map[*websocket.Conn]bool),
		greeting:     greeting,
		obs:          obs,
		writeTimeout: 200 * time.Millisecond,
	}
}

func (h *Hub) Name() string { return "websocket" }

// Active reports whether any client is connected
func (h *Hub) Active() bool {
	return h.Clients() > 0
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Deliver writes the frame to every client; failing clients are dropped
func (h *Hub) Deliver(ctx context.Context, f Frame) error {
	return h.broadcastText(ctx, f.Payload)
}

// ServeHTTP upgrades the request and keeps the client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket: upgrade failed: %v", err)
		return
	}

	if h.greeting != nil {
		msg, err := h.greeting()
		if err == nil {
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			err = conn.WriteMessage(websocket.TextMessage, msg)
		}
		if err != nil {
			log.Printf("WebSocket: greeting failed for %s: %v", r.RemoteAddr, err)
			conn.Close()
			return
		}
	}

	h.add(conn)
	log.Printf("WebSocket: client connected from %s", r.RemoteAddr)
	defer func() {
		h.remove(conn)
		conn.Close()
		log.Printf("WebSocket: client %s disconnected", r.RemoteAddr)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	n := len(h.conns)
	h.mu.Unlock()
	h.obs.SetGauge(observability.ObserversGauge, float64(n))
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	h.obs.SetGauge(observability.ObserversGauge, float64(n))
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

// broadcastText stops at the next client once ctx is done; the remaining
// clients get the following frame.
func (h *Hub) broadcastText(ctx context.Context, b []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, c := range h.snapshot() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("websocket delivery interrupted: %w", err)
		}
		_ = c.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
	return nil
}

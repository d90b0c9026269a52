package websocket

import (
	"log/slog"
	"sync"
)

// Message is a real-time notification broadcast to all connected clients.
// Fields lists the top-level document fields a sync touched so clients can
// refresh selectively.
type Message struct {
	Type   string         `json:"type"`
	Fields []string       `json:"fields,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// SyncMessage announces that a remote snapshot was reconciled.
func SyncMessage(fields []string) Message {
	return Message{Type: "guild_sync", Fields: fields}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast queues a message on every connected client. A client whose
// buffer is full misses the message; the next snapshot catches it up.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

package sse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lunch-picker/lunch-picker/internal/domain/event"
)

// Hub manages SSE clients subscribed to sessions.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*event.Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*event.Client),
	}
}

// Register adds a client. A client already registered under the same id is
// closed and replaced.
func (h *Hub) Register(client *event.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[client.ClientID]; ok && old != client {
		old.Close()
	}
	h.clients[client.ClientID] = client
}

// Unregister removes client if it is still the one registered under its id.
func (h *Hub) Unregister(client *event.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[client.ClientID]; ok && c == client {
		c.Close()
		delete(h.clients, client.ClientID)
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements event.Publisher.
func (h *Hub) Publish(sessionID uuid.UUID, message *event.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.SessionID == sessionID {
			trySend(c, message)
		}
	}
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func trySend(c *event.Client, msg *event.Message) {
	select {
	case c.MessageChan <- msg:
	default:
	}
}

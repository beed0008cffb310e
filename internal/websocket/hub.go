package websocket

import (
	"context"
	"sync"
)

// Hub tracks every open push connection for the process and fans messages
// out to all of them. Delivery is best-effort with no ordering guarantee
// across connections; a slow or closed connection never blocks the others.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	// Control channels
	register   chan *Client // New client connections
	unregister chan *Client // Client disconnections
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a message to every registered client. A full send buffer
// on one client drops the message for that client only.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	for client := range h.clients {
		client.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

// removeClient tolerates a client that was never registered or was already
// removed.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
}

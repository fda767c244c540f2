package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"land-registry-service/models"

	"github.com/apex/log"
)

// Hub manages WebSocket connections and broadcasting for the admin
// notification feed.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages to all clients
	broadcast chan []byte

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mutex sync.RWMutex

	connectedClients int
	sentMessages     int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			log.Infof("Notification client connected. Total clients: %d", h.connectedClients)

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			log.Infof("Notification client disconnected. Total clients: %d", h.connectedClients)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.sentMessages++
			h.mutex.Unlock()
		}
	}
}

// BroadcastNotification pushes one admin notification to all connected
// clients. Failures are logged only; the transfer workflow never waits on
// the feed.
func (h *Hub) BroadcastNotification(n *models.AdminNotification) {
	message := models.BroadcastMessage{
		Type:      "notification",
		Data:      n,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Failed to marshal broadcast message: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Warn("Notification broadcast channel is full, dropping message")
	}
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() (int, int) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients, h.sentMessages
}

package handlers

import (
	"net/http"

	ws "land-registry-service/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

// WebSocketHandler serves the live admin notification feed.
type WebSocketHandler struct {
	hub *ws.Hub
}

func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now
		return true
	},
}

// NotificationsFeed upgrades the connection and attaches it to the hub.
// The feed is push-only; inbound messages are drained and ignored.
func (h *WebSocketHandler) NotificationsFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	log.Infof("Notification feed connection established from %s", c.ClientIP())
}

// FeedStats reports connection counts for the notification feed.
func (h *WebSocketHandler) FeedStats(c *gin.Context) {
	connectedClients, sentMessages := h.hub.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": connectedClients,
		"sent_messages":     sentMessages,
	})
}

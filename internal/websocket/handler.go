package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches one upgraded connection to the hub for the given chat.
// Blocks until the peer disconnects.
func ServeWs(hub *Hub, c *websocket.Conn, chatID, userID uuid.UUID) {
	client := &Client{
		Hub:    hub,
		Conn:   c,
		ChatID: chatID,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}

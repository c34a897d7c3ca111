package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/pkg/generation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// streamChannel is the Redis pub/sub channel used for cross-instance fan-out
// of generation state events.
const streamChannel = "chat_stream_events"

// Hub fans generation state events out to every websocket watching a chat.
// Clients subscribe per chat, not per user: a stream started from one tab is
// visible from any other tab watching the same conversation.
type Hub struct {
	// ChatID -> open connections watching that chat
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out; nil in single-node mode
	rdb *redis.Client

	// instanceID lets the subscriber drop events this instance published
	// itself; local delivery already happened synchronously in Notify.
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ChatID] = append(h.clients[client.ChatID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"chat_id": client.ChatID,
				"user_id": client.UserID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ChatID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.ChatID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.ChatID]) == 0 {
					delete(h.clients, client.ChatID)
					h.logger.Info("Hub", "Last client left chat", map[string]interface{}{"chat_id": client.ChatID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify implements generation.Notifier. Called from the engine's flush and
// session goroutines, so it must never block on a slow client.
func (h *Hub) Notify(event generation.StateEvent) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "generation",
		"data": event,
	})
	if err != nil {
		return
	}

	h.deliverLocal(event.ChatID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"origin":  h.instanceID,
			"chat_id": event.ChatID.String(),
			"message": json.RawMessage(data),
		})
		if err := h.rdb.Publish(context.Background(), streamChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{
				"chat_id": event.ChatID,
				"error":   err.Error(),
			})
		}
	}
}

func (h *Hub) deliverLocal(chatID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[chatID]...)
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer: drop the connection, not the stream
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{
				"chat_id": chatID,
				"user_id": client.UserID,
			})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, streamChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			Origin  string          `json:"origin"`
			ChatID  string          `json:"chat_id"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Malformed cluster event", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceID {
			continue
		}

		chatID, err := uuid.Parse(payload.ChatID)
		if err != nil {
			continue
		}
		h.deliverLocal(chatID, payload.Message)
	}
}

package handler

import (
	"os"

	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/internal/service"
	internalWS "ai-roleplay-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StreamHandler upgrades websocket connections onto a chat's event stream.
type StreamHandler struct {
	chatService service.IChatService
	hub         *internalWS.Hub
	logger      logger.ILogger
}

func NewStreamHandler(chatService service.IChatService, hub *internalWS.Hub, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		chatService: chatService,
		hub:         hub,
		logger:      log,
	}
}

// ServeWs authenticates the handshake and joins the peer to one chat's
// stream. Browsers cannot set headers on websocket upgrades, so the token
// rides a query param; the Authorization header stays supported for tooling.
func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return fiber.ErrUnauthorized
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("Stream", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return fiber.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fiber.ErrUnauthorized
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return fiber.ErrUnauthorized
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.ErrBadRequest
	}

	if err := h.chatService.AuthorizeSession(c.Context(), userID, chatID); err != nil {
		return err
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("Stream", "WebSocket session started", map[string]interface{}{
				"chat_id": chatID,
				"user_id": userID,
			})
			internalWS.ServeWs(h.hub, conn, chatID, userID)
			h.logger.Info("Stream", "WebSocket session ended", map[string]interface{}{
				"chat_id": chatID,
				"user_id": userID,
			})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/chat/:id", h.ServeWs)
}

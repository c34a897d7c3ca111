package dto

import (
	"time"

	"ai-roleplay-be/pkg/generation"

	"github.com/google/uuid"
)

type CreateChatSessionRequest struct {
	CharacterId uuid.UUID `json:"character_id" validate:"required"`
	Title       string    `json:"title" validate:"max=300"`
	PersonaName string    `json:"persona_name" validate:"max=100"`
}

type ChatSessionResponse struct {
	Id            uuid.UUID  `json:"id"`
	CharacterId   uuid.UUID  `json:"character_id"`
	Title         string     `json:"title"`
	PersonaName   string     `json:"persona_name"`
	ApiInfo       string     `json:"api_info,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// LatestChatResponse is the startup payload: most recent session plus its
// messages, Session nil when the user has no chats yet.
type LatestChatResponse struct {
	Session  *ChatSessionResponse  `json:"session"`
	Messages []ChatMessageResponse `json:"messages,omitempty"`
}

type ChatMessageResponse struct {
	Id               uuid.UUID `json:"id"`
	Role             string    `json:"role"`
	Content          string    `json:"content"`
	Variations       []string  `json:"variations,omitempty"`
	CurrentVariation int       `json:"current_variation"`
	Status           string    `json:"status"`
	Aborted          bool      `json:"aborted,omitempty"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type GenerateRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type GenerateResponse struct {
	MessageId uuid.UUID `json:"message_id"`
}

type RegenerateRequest struct {
	MessageId uuid.UUID `json:"message_id" validate:"required"`
}

type ContinueRequest struct {
	MessageId uuid.UUID `json:"message_id" validate:"required"`
}

type CycleVariationRequest struct {
	MessageId uuid.UUID `json:"message_id" validate:"required"`
	Direction int       `json:"direction" validate:"required,oneof=-1 1"`
}

type EditMessageRequest struct {
	MessageId uuid.UUID `json:"message_id" validate:"required"`
	Content   string    `json:"content"`
	// Commit marks the edit as finished; committed edits become a new
	// variation and are persisted immediately.
	Commit bool `json:"commit"`
}

type DeleteMessageRequest struct {
	MessageId uuid.UUID `json:"message_id" validate:"required"`
}

type SnapshotResponse struct {
	Snapshot *generation.Snapshot `json:"snapshot"`
}

func MessageToResponse(m generation.Message) ChatMessageResponse {
	return ChatMessageResponse{
		Id:               m.ID,
		Role:             string(m.Role),
		Content:          m.Content,
		Variations:       m.Variations,
		CurrentVariation: m.CurrentVariation,
		Status:           string(m.Status),
		Aborted:          m.Aborted,
		Error:            m.Error,
		Timestamp:        m.Timestamp,
	}
}

func MessagesToResponse(messages []generation.Message) []ChatMessageResponse {
	out := make([]ChatMessageResponse, len(messages))
	for i, m := range messages {
		out[i] = MessageToResponse(m)
	}
	return out
}

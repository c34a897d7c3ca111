package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_MESSAGE_APPENDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeChatMessageAppended = "CHAT_MESSAGE_APPENDED"
	TypeChatSessionDeleted  = "CHAT_SESSION_DELETED"
	TypeUserRegistered      = "USER_REGISTERED"
)

// NewChatMessageAppended records one discrete message write in the durable
// session log: the stream of committed actions a chat went through.
func NewChatMessageAppended(chatID, characterID, messageID, role, status, content string) Event {
	return BaseEvent{
		Type: TypeChatMessageAppended,
		Data: map[string]interface{}{
			"chat_id":      chatID,
			"character_id": characterID,
			"message_id":   messageID,
			"role":         role,
			"status":       status,
			"content":      content,
		},
		OccurredAt: time.Now(),
	}
}

func NewChatSessionDeleted(chatID, userID string) Event {
	return BaseEvent{
		Type: TypeChatSessionDeleted,
		Data: map[string]interface{}{
			"chat_id": chatID,
			"user_id": userID,
		},
		OccurredAt: time.Now(),
	}
}

func NewUserRegistered(userID, email string) Event {
	return BaseEvent{
		Type: TypeUserRegistered,
		Data: map[string]interface{}{
			"user_id": userID,
			"email":   email,
		},
		OccurredAt: time.Now(),
	}
}

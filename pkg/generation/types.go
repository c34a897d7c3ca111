package generation

import (
	"context"
	"time"

	"ai-roleplay-be/pkg/llm"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleThinking  Role = "thinking"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusStreaming Status = "streaming"
	StatusComplete  Status = "complete"
	StatusAborted   Status = "aborted"
	StatusError     Status = "error"
)

// Message is one turn of a conversation as the engine sees it.
//
// During streaming, Content holds the partially accumulated text and is not
// yet reflected in Variations. Once a session completes, Content always
// equals Variations[CurrentVariation].
type Message struct {
	ID               uuid.UUID
	Role             Role
	Content          string
	Timestamp        time.Time
	Variations       []string
	CurrentVariation int
	Status           Status
	Aborted          bool
	Error            string
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (m *Message) Clone() Message {
	c := *m
	c.Variations = append([]string(nil), m.Variations...)
	return c
}

func cloneMessages(messages []*Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m.Clone()
	}
	return out
}

// BackendConfig is the resolved configuration of the active generation
// backend. Sampling is opaque to the engine and passed through unchanged.
type BackendConfig struct {
	Kind     string
	BaseURL  string
	APIKey   string
	Model    string
	Sampling map[string]interface{}
}

// ConfigProvider resolves the currently active backend. A nil config with a
// nil error means no backend is configured.
type ConfigProvider interface {
	ActiveBackendConfig(ctx context.Context) (*BackendConfig, error)
}

// ProviderFactory builds a streaming client for a resolved backend config.
type ProviderFactory func(cfg *BackendConfig) (llm.StreamProvider, error)

// ChatStore is the persistence collaborator. The engine never talks to
// durable storage through anything else.
type ChatStore interface {
	SaveChat(ctx context.Context, characterID, chatID uuid.UUID, messages []Message, persona string, apiInfo string) error
	AppendMessage(ctx context.Context, characterID, chatID uuid.UUID, message Message) error
}

// StateEvent is emitted on every visible mutation of the streaming message:
// buffered content flushes and status transitions.
type StateEvent struct {
	ChatID    uuid.UUID `json:"chat_id"`
	MessageID uuid.UUID `json:"message_id"`
	Status    Status    `json:"status"`
	Delta     string    `json:"delta,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Notifier receives state events, typically a websocket hub.
type Notifier interface {
	Notify(event StateEvent)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(event StateEvent)

func (f NotifierFunc) Notify(event StateEvent) { f(event) }

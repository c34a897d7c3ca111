package generation

import (
	"time"

	"ai-roleplay-be/pkg/llm"
)

// Snapshot is a diagnostic record of what the last session sent to the
// backend. Replaced wholesale each session; never authoritative state.
// Credentials are not recorded.
type Snapshot struct {
	TakenAt time.Time     `json:"taken_at"`
	Kind    SessionKind   `json:"kind"`
	Prompt  string        `json:"prompt"`
	History []llm.Message `json:"history"`
	Backend string        `json:"backend"`
	Model   string        `json:"model"`
	Status  Status        `json:"status"`
	Error   string        `json:"error,omitempty"`
}

func newSnapshot(kind SessionKind, prompt string, history []llm.Message, cfg *BackendConfig) *Snapshot {
	return &Snapshot{
		TakenAt: time.Now(),
		Kind:    kind,
		Prompt:  prompt,
		History: append([]llm.Message(nil), history...),
		Backend: cfg.Kind,
		Model:   cfg.Model,
		Status:  StatusStreaming,
	}
}

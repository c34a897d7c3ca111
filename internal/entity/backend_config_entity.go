package entity

import (
	"time"

	"github.com/google/uuid"
)

// BackendConfig describes one saved generation backend. At most one config
// per user is active at a time; the engine refuses to start a session when
// none is.
type BackendConfig struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Name      string
	Kind      string // "openai" | "ollama"
	BaseURL   string
	APIKey    string
	Model     string
	Sampling  map[string]interface{}
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateBackendConfigRequest struct {
	Name     string                 `json:"name" validate:"required,max=100"`
	Kind     string                 `json:"kind" validate:"required,oneof=openai ollama"`
	BaseURL  string                 `json:"base_url" validate:"omitempty,url"`
	APIKey   string                 `json:"api_key"`
	Model    string                 `json:"model" validate:"required,max=200"`
	Sampling map[string]interface{} `json:"sampling"`
}

type UpdateBackendConfigRequest struct {
	Name     string                 `json:"name" validate:"required,max=100"`
	Kind     string                 `json:"kind" validate:"required,oneof=openai ollama"`
	BaseURL  string                 `json:"base_url" validate:"omitempty,url"`
	APIKey   string                 `json:"api_key"`
	Model    string                 `json:"model" validate:"required,max=200"`
	Sampling map[string]interface{} `json:"sampling"`
}

// BackendConfigResponse never includes the API key; HasAPIKey lets the UI
// show whether one is set.
type BackendConfigResponse struct {
	Id        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	Kind      string                 `json:"kind"`
	BaseURL   string                 `json:"base_url"`
	Model     string                 `json:"model"`
	Sampling  map[string]interface{} `json:"sampling,omitempty"`
	Active    bool                   `json:"active"`
	HasAPIKey bool                   `json:"has_api_key"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt *time.Time             `json:"updated_at"`
}

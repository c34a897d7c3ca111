package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCharacterRequest struct {
	Name               string   `json:"name" validate:"required,max=200"`
	Description        string   `json:"description"`
	Personality        string   `json:"personality"`
	Scenario           string   `json:"scenario"`
	FirstMessage       string   `json:"first_message"`
	AlternateGreetings []string `json:"alternate_greetings" validate:"dive,max=10000"`
	ExampleDialogue    string   `json:"example_dialogue"`
	SystemPrompt       string   `json:"system_prompt"`
	AvatarURL          string   `json:"avatar_url"`
}

type UpdateCharacterRequest struct {
	Name               string   `json:"name" validate:"required,max=200"`
	Description        string   `json:"description"`
	Personality        string   `json:"personality"`
	Scenario           string   `json:"scenario"`
	FirstMessage       string   `json:"first_message"`
	AlternateGreetings []string `json:"alternate_greetings" validate:"dive,max=10000"`
	ExampleDialogue    string   `json:"example_dialogue"`
	SystemPrompt       string   `json:"system_prompt"`
	AvatarURL          string   `json:"avatar_url"`
}

// UpdateGreetingsRequest replaces the ordered greeting list in one call,
// matching how card editors submit the whole list on save.
type UpdateGreetingsRequest struct {
	FirstMessage       string   `json:"first_message" validate:"required"`
	AlternateGreetings []string `json:"alternate_greetings" validate:"dive,max=10000"`
}

type CharacterResponse struct {
	Id                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Personality        string     `json:"personality"`
	Scenario           string     `json:"scenario"`
	FirstMessage       string     `json:"first_message"`
	AlternateGreetings []string   `json:"alternate_greetings,omitempty"`
	ExampleDialogue    string     `json:"example_dialogue"`
	SystemPrompt       string     `json:"system_prompt"`
	AvatarURL          string     `json:"avatar_url"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at"`
}

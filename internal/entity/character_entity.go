package entity

import (
	"time"

	"github.com/google/uuid"
)

// Character is a playable roleplay card: the prompt building blocks sent to
// the backend plus presentation fields.
type Character struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Name         string
	Description  string
	Personality  string
	Scenario     string
	FirstMessage string
	// AlternateGreetings are extra openers; together with FirstMessage they
	// seed the greeting message's variation list.
	AlternateGreetings []string
	ExampleDialogue    string
	SystemPrompt       string
	AvatarURL          string
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	DeletedAt          *time.Time
	IsDeleted          bool
}

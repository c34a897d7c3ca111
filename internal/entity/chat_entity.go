package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	CharacterId   uuid.UUID
	Title         string
	PersonaName   string
	ApiInfo       string
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}

// ChatMessage mirrors one engine message slot durably: the displayed content
// plus the full variation set and terminal status flags.
type ChatMessage struct {
	Id               uuid.UUID
	ChatSessionId    uuid.UUID
	Role             string
	Content          string
	Variations       []string
	CurrentVariation int
	Status           string
	Aborted          bool
	Error            string
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	DeletedAt        *time.Time
	IsDeleted        bool
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateLoreEntryRequest struct {
	CharacterId    uuid.UUID `json:"character_id" validate:"required"`
	Title          string    `json:"title" validate:"max=200"`
	Keywords       []string  `json:"keywords" validate:"max=20"`
	Content        string    `json:"content" validate:"required"`
	Enabled        *bool     `json:"enabled"`
	InsertionOrder int       `json:"insertion_order"`
}

type UpdateLoreEntryRequest struct {
	Title          string   `json:"title" validate:"max=200"`
	Keywords       []string `json:"keywords" validate:"max=20"`
	Content        string   `json:"content" validate:"required"`
	Enabled        *bool    `json:"enabled"`
	InsertionOrder int      `json:"insertion_order"`
}

type SearchLoreRequest struct {
	CharacterId uuid.UUID `json:"character_id" validate:"required"`
	Query       string    `json:"query" validate:"required"`
	Limit       int       `json:"limit" validate:"min=0,max=20"`
}

// LoreSearchHit pairs an entry with the best similarity among its chunks and
// the chunk text that produced it.
type LoreSearchHit struct {
	Entry      *LoreEntryResponse `json:"entry"`
	Similarity float64            `json:"similarity"`
	Fragment   string             `json:"fragment"`
}

// PublishEmbedLoreMessage is the payload sent to the embedding worker topic.
type PublishEmbedLoreMessage struct {
	LoreEntryId uuid.UUID `json:"lore_entry_id"`
}

type LoreEntryResponse struct {
	Id             uuid.UUID  `json:"id"`
	CharacterId    uuid.UUID  `json:"character_id"`
	Title          string     `json:"title"`
	Keywords       []string   `json:"keywords"`
	Content        string     `json:"content"`
	Enabled        bool       `json:"enabled"`
	InsertionOrder int        `json:"insertion_order"`
	Embedded       bool       `json:"embedded"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

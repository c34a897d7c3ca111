package entity

import (
	"time"

	"github.com/google/uuid"
)

// LoreEntry is a piece of world knowledge attached to a character. Entries
// are matched into the prompt by keyword or by embedding similarity once the
// async embedding worker has processed them.
type LoreEntry struct {
	Id             uuid.UUID
	CharacterId    uuid.UUID
	Title          string
	Keywords       []string
	Content        string
	Enabled        bool
	InsertionOrder int
	Embedded       bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

// LoreEmbedding is the vector projection of one lore entry.
type LoreEmbedding struct {
	Id             uuid.UUID
	Document       string
	EmbeddingValue []float32
	LoreEntryId    uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnabledOnly struct{}

func (s EnabledOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("enabled = ?", true)
}

// NotEmbedded selects lore entries the embedding worker has not processed.
type NotEmbedded struct{}

func (s NotEmbedded) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedded = ?", false)
}

type ByLoreEntryID struct {
	LoreEntryID uuid.UUID
}

func (s ByLoreEntryID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("lore_entry_id = ?", s.LoreEntryID)
}

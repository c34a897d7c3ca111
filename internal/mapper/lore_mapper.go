package mapper

import (
	"encoding/json"
	"time"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LoreMapper struct{}

func NewLoreMapper() *LoreMapper {
	return &LoreMapper{}
}

func (m *LoreMapper) ToEntity(l *model.LoreEntry) *entity.LoreEntry {
	if l == nil {
		return nil
	}

	var deletedAt *time.Time
	if l.DeletedAt.Valid {
		t := l.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !l.UpdatedAt.IsZero() {
		t := l.UpdatedAt
		updatedAt = &t
	}

	var keywords []string
	if len(l.Keywords) > 0 {
		_ = json.Unmarshal(l.Keywords, &keywords)
	}

	return &entity.LoreEntry{
		Id:             l.Id,
		CharacterId:    l.CharacterId,
		Title:          l.Title,
		Keywords:       keywords,
		Content:        l.Content,
		Enabled:        l.Enabled,
		InsertionOrder: l.InsertionOrder,
		Embedded:       l.Embedded,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      l.DeletedAt.Valid,
	}
}

func (m *LoreMapper) ToModel(l *entity.LoreEntry) *model.LoreEntry {
	if l == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if l.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *l.DeletedAt, Valid: true}
	} else if l.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if l.UpdatedAt != nil {
		updatedAt = *l.UpdatedAt
	}

	var keywords datatypes.JSON
	if len(l.Keywords) > 0 {
		raw, err := json.Marshal(l.Keywords)
		if err == nil {
			keywords = datatypes.JSON(raw)
		}
	}

	return &model.LoreEntry{
		Id:             l.Id,
		CharacterId:    l.CharacterId,
		Title:          l.Title,
		Keywords:       keywords,
		Content:        l.Content,
		Enabled:        l.Enabled,
		InsertionOrder: l.InsertionOrder,
		Embedded:       l.Embedded,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

// Embedding Mappers

func (m *LoreMapper) EmbeddingToEntity(e *model.LoreEmbedding) *entity.LoreEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.LoreEmbedding{
		Id:             e.Id,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		LoreEntryId:    e.LoreEntryId,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      e.DeletedAt.Valid,
	}
}

func (m *LoreMapper) EmbeddingToModel(e *entity.LoreEmbedding) *model.LoreEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.LoreEmbedding{
		Id:             e.Id,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		LoreEntryId:    e.LoreEntryId,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

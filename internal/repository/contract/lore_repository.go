package contract

import (
	"context"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/repository/specification"

	"github.com/google/uuid"
)

type LoreEntryRepository interface {
	Create(ctx context.Context, entry *entity.LoreEntry) error
	Update(ctx context.Context, entry *entity.LoreEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LoreEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LoreEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

// ScoredLoreEmbedding wraps LoreEmbedding with its similarity score
type ScoredLoreEmbedding struct {
	Embedding  *entity.LoreEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type LoreEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.LoreEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.LoreEmbedding) error
	DeleteByLoreEntryId(ctx context.Context, loreEntryId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LoreEmbedding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LoreEmbedding, error)
	// SearchSimilarWithScore returns embeddings for one character's lore,
	// with similarity scores filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, characterId uuid.UUID, threshold float64) ([]*ScoredLoreEmbedding, error)
}

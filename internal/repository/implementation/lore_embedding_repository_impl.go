package implementation

import (
	"context"
	"errors"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/mapper"
	"ai-roleplay-be/internal/model"
	"ai-roleplay-be/internal/repository/contract"
	"ai-roleplay-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type LoreEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LoreMapper
}

func NewLoreEmbeddingRepository(db *gorm.DB) contract.LoreEmbeddingRepository {
	return &LoreEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewLoreMapper(),
	}
}

func (r *LoreEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LoreEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.LoreEmbedding) error {
	m := r.mapper.EmbeddingToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.EmbeddingToEntity(m)
	return nil
}

func (r *LoreEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.LoreEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.LoreEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.EmbeddingToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*embeddings[i] = *r.mapper.EmbeddingToEntity(m)
	}
	return nil
}

func (r *LoreEmbeddingRepositoryImpl) DeleteByLoreEntryId(ctx context.Context, loreEntryId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("lore_entry_id = ?", loreEntryId).Delete(&model.LoreEmbedding{}).Error
}

func (r *LoreEmbeddingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LoreEmbedding, error) {
	var m model.LoreEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EmbeddingToEntity(&m), nil
}

func (r *LoreEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LoreEmbedding, error) {
	var models []*model.LoreEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.LoreEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.EmbeddingToEntity(m)
	}
	return entities, nil
}

// SearchSimilarWithScore returns embeddings with similarity scores, filtered by threshold.
// Cosine distance in pgvector is 1 - cosine_similarity, so the select inverts it.
func (r *LoreEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, characterId uuid.UUID, threshold float64) ([]*contract.ScoredLoreEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.LoreEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("lore_embeddings").
		Select("lore_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN lore_entries ON lore_entries.id = lore_embeddings.lore_entry_id").
		Where("lore_entries.character_id = ?", characterId).
		Where("lore_entries.enabled = ?", true).
		Where("lore_embeddings.deleted_at IS NULL").
		Where("lore_entries.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredLoreEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredLoreEmbedding{
			Embedding:  r.mapper.EmbeddingToEntity(&res.LoreEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

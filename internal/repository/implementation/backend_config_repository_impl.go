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
	"gorm.io/gorm"
)

type BackendConfigRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BackendConfigMapper
}

func NewBackendConfigRepository(db *gorm.DB) contract.BackendConfigRepository {
	return &BackendConfigRepositoryImpl{
		db:     db,
		mapper: mapper.NewBackendConfigMapper(),
	}
}

func (r *BackendConfigRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *BackendConfigRepositoryImpl) Create(ctx context.Context, config *entity.BackendConfig) error {
	m := r.mapper.ToModel(config)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*config = *r.mapper.ToEntity(m)
	return nil
}

func (r *BackendConfigRepositoryImpl) Update(ctx context.Context, config *entity.BackendConfig) error {
	m := r.mapper.ToModel(config)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*config = *r.mapper.ToEntity(m)
	return nil
}

func (r *BackendConfigRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.BackendConfig{}, id).Error
}

func (r *BackendConfigRepositoryImpl) DeactivateAll(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.BackendConfig{}).
		Where("user_id = ?", userId).
		Update("active", false).Error
}

func (r *BackendConfigRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BackendConfig, error) {
	var m model.BackendConfig
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BackendConfigRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BackendConfig, error) {
	var models []*model.BackendConfig
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.BackendConfig, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *BackendConfigRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.BackendConfig{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

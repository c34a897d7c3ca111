package contract

import (
	"context"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/repository/specification"

	"github.com/google/uuid"
)

type BackendConfigRepository interface {
	Create(ctx context.Context, config *entity.BackendConfig) error
	Update(ctx context.Context, config *entity.BackendConfig) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeactivateAll clears the active flag for a user, so activation stays
	// exclusive.
	DeactivateAll(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BackendConfig, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BackendConfig, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

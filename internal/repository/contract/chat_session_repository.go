package contract

import (
	"context"
	"time"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Update(ctx context.Context, session *entity.ChatSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// TouchLastMessage stamps last_message_at, and when known the backend
	// that produced the latest message, without loading the row; the save
	// pipeline calls it on every flush.
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time, apiInfo string) error
}

package unitofwork

import (
	"context"

	"ai-roleplay-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	CharacterRepository() contract.CharacterRepository
	LoreEntryRepository() contract.LoreEntryRepository
	LoreEmbeddingRepository() contract.LoreEmbeddingRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	BackendConfigRepository() contract.BackendConfigRepository
}

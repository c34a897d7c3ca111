// FILE: internal/service/chat_store.go
package service

import (
	"context"
	"time"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/internal/repository/unitofwork"
	"ai-roleplay-be/pkg/events"
	"ai-roleplay-be/pkg/generation"
	pkgNats "ai-roleplay-be/pkg/nats"

	"github.com/google/uuid"
)

// chatStore is the engine's persistence collaborator: full-state writes go to
// Postgres, discrete actions additionally land in the NATS session log.
type chatStore struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger
}

func newChatStore(uowFactory unitofwork.RepositoryFactory, eventPublisher *pkgNats.Publisher, log logger.ILogger) *chatStore {
	return &chatStore{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *chatStore) SaveChat(ctx context.Context, characterID, chatID uuid.UUID, messages []generation.Message, persona string, apiInfo string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	rows := make([]*entity.ChatMessage, len(messages))
	for i, m := range messages {
		rows[i] = engineMessageToEntity(chatID, m)
	}

	if err := uow.ChatMessageRepository().ReplaceForSession(ctx, chatID, rows); err != nil {
		return err
	}

	// A touch on a session deleted while the save was pending matches zero
	// rows, which is the outcome we want anyway.
	return uow.ChatSessionRepository().TouchLastMessage(ctx, chatID, time.Now(), apiInfo)
}

func (s *chatStore) AppendMessage(ctx context.Context, characterID, chatID uuid.UUID, message generation.Message) error {
	if s.eventPublisher == nil {
		// Running without NATS; the Postgres write in SaveChat is still the
		// source of truth, only the replayable log is skipped.
		return nil
	}
	event := events.NewChatMessageAppended(
		chatID.String(),
		characterID.String(),
		message.ID.String(),
		string(message.Role),
		string(message.Status),
		message.Content,
	)
	return s.eventPublisher.Publish(ctx, event)
}

func engineMessageToEntity(chatID uuid.UUID, m generation.Message) *entity.ChatMessage {
	return &entity.ChatMessage{
		Id:               m.ID,
		ChatSessionId:    chatID,
		Role:             string(m.Role),
		Content:          m.Content,
		Variations:       m.Variations,
		CurrentVariation: m.CurrentVariation,
		Status:           string(m.Status),
		Aborted:          m.Aborted,
		Error:            m.Error,
		CreatedAt:        m.Timestamp,
	}
}

func entityMessageToEngine(m *entity.ChatMessage) generation.Message {
	return generation.Message{
		ID:               m.Id,
		Role:             generation.Role(m.Role),
		Content:          m.Content,
		Timestamp:        m.CreatedAt,
		Variations:       m.Variations,
		CurrentVariation: m.CurrentVariation,
		Status:           generation.Status(m.Status),
		Aborted:          m.Aborted,
		Error:            m.Error,
	}
}

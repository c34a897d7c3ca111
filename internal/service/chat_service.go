// FILE: internal/service/chat_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-roleplay-be/internal/dto"
	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/internal/repository/memory"
	"ai-roleplay-be/internal/repository/specification"
	"ai-roleplay-be/internal/repository/unitofwork"
	"ai-roleplay-be/pkg/embedding"
	"ai-roleplay-be/pkg/events"
	"ai-roleplay-be/pkg/generation"
	"ai-roleplay-be/pkg/llm"
	"ai-roleplay-be/pkg/llm/factory"
	pkgNats "ai-roleplay-be/pkg/nats"

	"github.com/google/uuid"
)

var ErrChatSessionNotFound = errors.New("chat session not found")

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateChatSessionRequest) (*dto.ChatSessionResponse, error)
	GetSessions(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSessionResponse, error)
	// LatestSession restores the most recently active chat with its
	// messages, the single call a client makes on startup.
	LatestSession(ctx context.Context, userId uuid.UUID) (*dto.LatestChatResponse, error)
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error
	// AuthorizeSession verifies ownership without hydrating a controller,
	// used by the websocket handshake.
	AuthorizeSession(ctx context.Context, userId, sessionId uuid.UUID) error
	ListMessages(ctx context.Context, userId, sessionId uuid.UUID) ([]dto.ChatMessageResponse, error)

	Generate(ctx context.Context, userId, sessionId uuid.UUID, req *dto.GenerateRequest) (*dto.GenerateResponse, error)
	Stop(ctx context.Context, userId, sessionId uuid.UUID) error
	Regenerate(ctx context.Context, userId, sessionId uuid.UUID, req *dto.RegenerateRequest) error
	Continue(ctx context.Context, userId, sessionId uuid.UUID, req *dto.ContinueRequest) error
	CycleVariation(ctx context.Context, userId, sessionId uuid.UUID, req *dto.CycleVariationRequest) (*dto.ChatMessageResponse, error)
	EditMessage(ctx context.Context, userId, sessionId uuid.UUID, req *dto.EditMessageRequest) (*dto.ChatMessageResponse, error)
	DeleteMessage(ctx context.Context, userId, sessionId uuid.UUID, req *dto.DeleteMessageRequest) error
	Snapshot(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SnapshotResponse, error)
}

type chatService struct {
	uowFactory        unitofwork.RepositoryFactory
	registry          *memory.ControllerRegistry
	backendService    IBackendConfigService
	notifier          generation.Notifier
	eventPublisher    *pkgNats.Publisher
	embeddingProvider embedding.EmbeddingProvider
	log               logger.ILogger

	store *chatStore
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	registry *memory.ControllerRegistry,
	backendService IBackendConfigService,
	notifier generation.Notifier,
	eventPublisher *pkgNats.Publisher,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:        uowFactory,
		registry:          registry,
		backendService:    backendService,
		notifier:          notifier,
		eventPublisher:    eventPublisher,
		embeddingProvider: embeddingProvider,
		log:               log,
		store:             newChatStore(uowFactory, eventPublisher, log),
	}
}

func (s *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateChatSessionRequest) (*dto.ChatSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	character, err := uow.CharacterRepository().FindOne(ctx,
		specification.ByID{ID: req.CharacterId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, fmt.Errorf("find character: %w", err)
	}
	if character == nil {
		return nil, ErrCharacterNotFound
	}

	title := req.Title
	if title == "" {
		title = character.Name
	}

	session := &entity.ChatSession{
		Id:          uuid.New(),
		UserId:      userId,
		CharacterId: character.Id,
		Title:       title,
		PersonaName: req.PersonaName,
		CreatedAt:   time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	// Seed the greeting as a normal assistant slot so it regenerates and
	// cycles like any other message. Alternate greetings arrive as extra
	// variations, so the opener is swipeable from the start.
	if character.FirstMessage != "" {
		variations := append([]string{character.FirstMessage}, character.AlternateGreetings...)
		greeting := &entity.ChatMessage{
			Id:               uuid.New(),
			ChatSessionId:    session.Id,
			Role:             string(generation.RoleAssistant),
			Content:          character.FirstMessage,
			Variations:       variations,
			CurrentVariation: 0,
			Status:           string(generation.StatusComplete),
			CreatedAt:        time.Now(),
		}
		if err := uow.ChatMessageRepository().Create(ctx, greeting); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("Chat", "Session created", map[string]interface{}{
		"session_id":   session.Id,
		"character_id": character.Id,
		"user_id":      userId,
	})

	return toChatSessionResponse(session), nil
}

func (s *chatService) GetSessions(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "last_message_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatSessionResponse, len(sessions))
	for i, session := range sessions {
		res[i] = toChatSessionResponse(session)
	}
	return res, nil
}

func (s *chatService) LatestSession(ctx context.Context, userId uuid.UUID) (*dto.LatestChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "last_message_at", Desc: true},
		specification.Pagination{Limit: 1},
	)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return &dto.LatestChatResponse{}, nil
	}

	session := sessions[0]
	ctrl, err := s.controllerFor(ctx, userId, session.Id)
	if err != nil {
		return nil, err
	}

	return &dto.LatestChatResponse{
		Session:  toChatSessionResponse(session),
		Messages: dto.MessagesToResponse(ctrl.Messages()),
	}, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	// Stop any in-flight stream before the chat disappears under it
	if ctrl, ok := s.registry.Get(sessionId.String()); ok {
		ctrl.Stop()
	}
	s.registry.Delete(sessionId.String())

	if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewChatSessionDeleted(sessionId.String(), userId.String())); err != nil {
			s.log.Warn("Chat", "Failed to publish session deleted event", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

func (s *chatService) AuthorizeSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	_, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	return err
}

func (s *chatService) ListMessages(ctx context.Context, userId, sessionId uuid.UUID) ([]dto.ChatMessageResponse, error) {
	ctrl, err := s.controllerFor(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	return dto.MessagesToResponse(ctrl.Messages()), nil
}

func (s *chatService) Generate(ctx context.Context, userId, sessionId uuid.UUID, req *dto.GenerateRequest) (*dto.GenerateResponse, error) {
	ctrl, err := s.controllerFor(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messageId, err := ctrl.Generate(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}
	return &dto.GenerateResponse{MessageId: messageId}, nil
}

func (s *chatService) Stop(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.findOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	// A registry miss means nothing is streaming; stop is idempotent.
	if ctrl, ok := s.registry.Get(sessionId.String()); ok {
		ctrl.Stop()
	}
	return nil
}

func (s *chatService) Regenerate(ctx context.Context, userId, sessionId uuid.UUID, req *dto.RegenerateRequest) error {
	ctrl, err := s.controllerFor(ctx, userId, sessionId)
	if err != nil {
		return err
	}
	return ctrl.Regenerate(ctx, req.MessageId)
}

func (s *chatService) Continue(ctx context.Context, userId, sessionId uuid.UUID, req *dto.ContinueRequest) error {
	ctrl, err := s.controllerFor(ctx, userId, sessionId)
	if err != nil {
		return err
	}
	return ctrl.Continue(ctx, req.MessageId)
}

func (s *chatService) CycleVariation(ctx context.Context, userId, sessionId uuid.UUID, req *dto.CycleVariationRequest) (*dto.ChatMessageResponse, error) {
	ctrl, err := s.controllerFor(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	updated, err := ctrl.CycleVariation(ctx, req.MessageId, req.Direction)
	if err != nil {
		return nil, err
	}
	res := dto.MessageToResponse(updated)
	return &res, nil
}

func (s *chatService) EditMessage(ctx context.Context, userId, sessionId uuid.UUID, req *dto.EditMessageRequest) (*dto.ChatMessageResponse, error) {
	ctrl, err := s.controllerFor(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	updated, err := ctrl.Edit(ctx, req.MessageId, req.Content, req.Commit)
	if err != nil {
		return nil, err
	}
	res := dto.MessageToResponse(updated)
	return &res, nil
}

func (s *chatService) DeleteMessage(ctx context.Context, userId, sessionId uuid.UUID, req *dto.DeleteMessageRequest) error {
	ctrl, err := s.controllerFor(ctx, userId, sessionId)
	if err != nil {
		return err
	}
	return ctrl.DeleteMessage(ctx, req.MessageId)
}

func (s *chatService) Snapshot(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SnapshotResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.findOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	ctrl, ok := s.registry.Get(sessionId.String())
	if !ok {
		return &dto.SnapshotResponse{}, nil
	}
	return &dto.SnapshotResponse{Snapshot: ctrl.Snapshot()}, nil
}

// controllerFor returns the live controller for a chat, hydrating one from
// persisted messages on a registry miss. Hydration is what makes controllers
// expirable: an idle chat costs nothing until someone touches it again.
func (s *chatService) controllerFor(ctx context.Context, userId, sessionId uuid.UUID) (*generation.Controller, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	if ctrl, ok := s.registry.Get(sessionId.String()); ok {
		return ctrl, nil
	}

	character, err := uow.CharacterRepository().FindOne(ctx, specification.ByID{ID: session.CharacterId})
	if err != nil {
		return nil, fmt.Errorf("find character: %w", err)
	}
	if character == nil {
		return nil, ErrCharacterNotFound
	}

	rows, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	seed := make([]generation.Message, len(rows))
	for i, row := range rows {
		seed[i] = entityMessageToEngine(row)
	}

	deps := generation.Deps{
		Config:    s.backendService.ProviderFor(session.UserId),
		Providers: s.providerFactory(character, session.PersonaName),
		Saver:     generation.NewSaver(generation.DefaultSaveQuiet, s.store, s.log),
		Notifier:  s.notifier,
		Logger:    s.log,
	}

	ctrl := generation.NewController(session.Id, session.CharacterId, session.PersonaName, seed, deps)
	s.registry.Save(sessionId.String(), ctrl)
	return ctrl, nil
}

// providerFactory wraps the raw backend client with the prompt assembler so
// every dispatch carries the character card and triggered lore.
func (s *chatService) providerFactory(character *entity.Character, personaName string) generation.ProviderFactory {
	return func(cfg *generation.BackendConfig) (llm.StreamProvider, error) {
		inner, err := factory.NewStreamProvider(cfg.Kind, cfg.Model, cfg.BaseURL, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return &promptAssembler{
			inner:             inner,
			uowFactory:        s.uowFactory,
			embeddingProvider: s.embeddingProvider,
			log:               s.log,
			character:         character,
			personaName:       personaName,
		}, nil
	}
}

func (s *chatService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, fmt.Errorf("find chat session: %w", err)
	}
	if session == nil {
		return nil, ErrChatSessionNotFound
	}
	return session, nil
}

func toChatSessionResponse(session *entity.ChatSession) *dto.ChatSessionResponse {
	return &dto.ChatSessionResponse{
		Id:            session.Id,
		CharacterId:   session.CharacterId,
		Title:         session.Title,
		PersonaName:   session.PersonaName,
		ApiInfo:       session.ApiInfo,
		LastMessageAt: session.LastMessageAt,
		CreatedAt:     session.CreatedAt,
		UpdatedAt:     session.UpdatedAt,
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-roleplay-be/internal/dto"
	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/internal/repository/specification"
	"ai-roleplay-be/internal/repository/unitofwork"
	"ai-roleplay-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

var ErrLoreEntryNotFound = errors.New("lore entry not found")

type ILoreService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateLoreEntryRequest) (*dto.LoreEntryResponse, error)
	Update(ctx context.Context, userId, entryId uuid.UUID, req *dto.UpdateLoreEntryRequest) (*dto.LoreEntryResponse, error)
	Delete(ctx context.Context, userId, entryId uuid.UUID) error
	GetAllByCharacter(ctx context.Context, userId, characterId uuid.UUID) ([]*dto.LoreEntryResponse, error)
	Search(ctx context.Context, userId uuid.UUID, req *dto.SearchLoreRequest) ([]*dto.LoreSearchHit, error)
}

type loreService struct {
	uowFactory        unitofwork.RepositoryFactory
	pubSub            *gochannel.GoChannel
	topicName         string
	embeddingProvider embedding.EmbeddingProvider
	log               logger.ILogger
}

func NewLoreService(
	uowFactory unitofwork.RepositoryFactory,
	pubSub *gochannel.GoChannel,
	topicName string,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) ILoreService {
	return &loreService{
		uowFactory:        uowFactory,
		pubSub:            pubSub,
		topicName:         topicName,
		embeddingProvider: embeddingProvider,
		log:               log,
	}
}

func (s *loreService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateLoreEntryRequest) (*dto.LoreEntryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Lore belongs to a character the caller owns
	character, err := uow.CharacterRepository().FindOne(ctx,
		specification.ByID{ID: req.CharacterId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, ErrCharacterNotFound
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	entry := &entity.LoreEntry{
		Id:             uuid.New(),
		CharacterId:    req.CharacterId,
		Title:          req.Title,
		Keywords:       req.Keywords,
		Content:        req.Content,
		Enabled:        enabled,
		InsertionOrder: req.InsertionOrder,
		CreatedAt:      time.Now(),
	}

	if err := uow.LoreEntryRepository().Create(ctx, entry); err != nil {
		return nil, err
	}

	s.requestEmbedding(entry.Id)

	return toLoreEntryResponse(entry), nil
}

func (s *loreService) Update(ctx context.Context, userId, entryId uuid.UUID, req *dto.UpdateLoreEntryRequest) (*dto.LoreEntryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	entry, err := s.findOwned(ctx, uow, userId, entryId)
	if err != nil {
		return nil, err
	}

	contentChanged := entry.Content != req.Content

	entry.Title = req.Title
	entry.Keywords = req.Keywords
	entry.Content = req.Content
	entry.InsertionOrder = req.InsertionOrder
	if req.Enabled != nil {
		entry.Enabled = *req.Enabled
	}
	if contentChanged {
		entry.Embedded = false
	}

	if err := uow.LoreEntryRepository().Update(ctx, entry); err != nil {
		return nil, err
	}

	if contentChanged {
		s.requestEmbedding(entry.Id)
	}

	return toLoreEntryResponse(entry), nil
}

func (s *loreService) Delete(ctx context.Context, userId, entryId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	entry, err := s.findOwned(ctx, uow, userId, entryId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.LoreEmbeddingRepository().DeleteByLoreEntryId(ctx, entry.Id); err != nil {
		return err
	}
	if err := uow.LoreEntryRepository().Delete(ctx, entry.Id); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *loreService) GetAllByCharacter(ctx context.Context, userId, characterId uuid.UUID) ([]*dto.LoreEntryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	character, err := uow.CharacterRepository().FindOne(ctx,
		specification.ByID{ID: characterId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, ErrCharacterNotFound
	}

	entries, err := uow.LoreEntryRepository().FindAll(ctx,
		specification.ByCharacterID{CharacterID: characterId},
		specification.OrderBy{Field: "insertion_order", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LoreEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = toLoreEntryResponse(e)
	}
	return res, nil
}

// Search runs a semantic lookup over one character's embedded lore. Each hit
// carries the best-scoring chunk; entries whose chunks all fall under the
// threshold stay out.
func (s *loreService) Search(ctx context.Context, userId uuid.UUID, req *dto.SearchLoreRequest) ([]*dto.LoreSearchHit, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	character, err := uow.CharacterRepository().FindOne(ctx,
		specification.ByID{ID: req.CharacterId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, ErrCharacterNotFound
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	vec, err := s.embeddingProvider.Embed(ctx, req.Query, embedding.TaskQuery)
	if err != nil {
		return nil, err
	}

	scored, err := uow.LoreEmbeddingRepository().SearchSimilarWithScore(
		ctx, vec, limit, req.CharacterId, loreSearchThreshold,
	)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return []*dto.LoreSearchHit{}, nil
	}

	entries, err := uow.LoreEntryRepository().FindAll(ctx,
		specification.ByCharacterID{CharacterID: req.CharacterId},
	)
	if err != nil {
		return nil, err
	}
	byId := make(map[uuid.UUID]*entity.LoreEntry, len(entries))
	for _, e := range entries {
		byId[e.Id] = e
	}

	// Results come back ordered by similarity; keep only the best chunk per
	// entry.
	seen := make(map[uuid.UUID]bool)
	hits := make([]*dto.LoreSearchHit, 0, len(scored))
	for _, sc := range scored {
		entry, ok := byId[sc.Embedding.LoreEntryId]
		if !ok || seen[entry.Id] {
			continue
		}
		seen[entry.Id] = true
		hits = append(hits, &dto.LoreSearchHit{
			Entry:      toLoreEntryResponse(entry),
			Similarity: sc.Similarity,
			Fragment:   sc.Embedding.Document,
		})
	}
	return hits, nil
}

// requestEmbedding hands the entry to the async embedding worker. Failure to
// enqueue is logged, not surfaced: the entry still works via keyword match.
func (s *loreService) requestEmbedding(entryId uuid.UUID) {
	payload, err := json.Marshal(dto.PublishEmbedLoreMessage{LoreEntryId: entryId})
	if err != nil {
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		s.log.Warn("Lore", "Failed to enqueue embedding request", map[string]interface{}{
			"lore_entry_id": entryId,
			"error":         err.Error(),
		})
	}
}

func (s *loreService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, entryId uuid.UUID) (*entity.LoreEntry, error) {
	entry, err := uow.LoreEntryRepository().FindOne(ctx, specification.ByID{ID: entryId})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrLoreEntryNotFound
	}

	character, err := uow.CharacterRepository().FindOne(ctx,
		specification.ByID{ID: entry.CharacterId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, ErrLoreEntryNotFound
	}

	return entry, nil
}

func toLoreEntryResponse(e *entity.LoreEntry) *dto.LoreEntryResponse {
	return &dto.LoreEntryResponse{
		Id:             e.Id,
		CharacterId:    e.CharacterId,
		Title:          e.Title,
		Keywords:       e.Keywords,
		Content:        e.Content,
		Enabled:        e.Enabled,
		InsertionOrder: e.InsertionOrder,
		Embedded:       e.Embedded,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

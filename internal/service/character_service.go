package service

import (
	"context"
	"errors"
	"time"

	"ai-roleplay-be/internal/dto"
	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/pkg/logger"
	"ai-roleplay-be/internal/repository/specification"
	"ai-roleplay-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

var ErrCharacterNotFound = errors.New("character not found")

type ICharacterService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateCharacterRequest) (*dto.CharacterResponse, error)
	Update(ctx context.Context, userId, characterId uuid.UUID, req *dto.UpdateCharacterRequest) (*dto.CharacterResponse, error)
	Delete(ctx context.Context, userId, characterId uuid.UUID) error
	GetOne(ctx context.Context, userId, characterId uuid.UUID) (*dto.CharacterResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.CharacterResponse, error)
	UpdateGreetings(ctx context.Context, userId, characterId uuid.UUID, req *dto.UpdateGreetingsRequest) (*dto.CharacterResponse, error)
}

type characterService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
}

func NewCharacterService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ICharacterService {
	return &characterService{
		uowFactory: uowFactory,
		log:        log,
	}
}

func (s *characterService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateCharacterRequest) (*dto.CharacterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	character := &entity.Character{
		Id:                 uuid.New(),
		UserId:             userId,
		Name:               req.Name,
		Description:        req.Description,
		Personality:        req.Personality,
		Scenario:           req.Scenario,
		FirstMessage:       req.FirstMessage,
		AlternateGreetings: req.AlternateGreetings,
		ExampleDialogue:    req.ExampleDialogue,
		SystemPrompt:       req.SystemPrompt,
		AvatarURL:          req.AvatarURL,
		CreatedAt:          time.Now(),
	}

	if err := uow.CharacterRepository().Create(ctx, character); err != nil {
		return nil, err
	}

	s.log.Info("Character", "Character created", map[string]interface{}{
		"character_id": character.Id,
		"user_id":      userId,
	})

	return toCharacterResponse(character), nil
}

func (s *characterService) Update(ctx context.Context, userId, characterId uuid.UUID, req *dto.UpdateCharacterRequest) (*dto.CharacterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	character, err := s.findOwned(ctx, uow, userId, characterId)
	if err != nil {
		return nil, err
	}

	character.Name = req.Name
	character.Description = req.Description
	character.Personality = req.Personality
	character.Scenario = req.Scenario
	character.FirstMessage = req.FirstMessage
	character.AlternateGreetings = req.AlternateGreetings
	character.ExampleDialogue = req.ExampleDialogue
	character.SystemPrompt = req.SystemPrompt
	character.AvatarURL = req.AvatarURL

	if err := uow.CharacterRepository().Update(ctx, character); err != nil {
		return nil, err
	}

	return toCharacterResponse(character), nil
}

func (s *characterService) Delete(ctx context.Context, userId, characterId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	character, err := s.findOwned(ctx, uow, userId, characterId)
	if err != nil {
		return err
	}

	return uow.CharacterRepository().Delete(ctx, character.Id)
}

func (s *characterService) GetOne(ctx context.Context, userId, characterId uuid.UUID) (*dto.CharacterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	character, err := s.findOwned(ctx, uow, userId, characterId)
	if err != nil {
		return nil, err
	}
	return toCharacterResponse(character), nil
}

func (s *characterService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.CharacterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	characters, err := uow.CharacterRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.CharacterResponse, len(characters))
	for i, c := range characters {
		res[i] = toCharacterResponse(c)
	}
	return res, nil
}

// UpdateGreetings replaces the greeting set without touching the rest of the
// card. Already-created sessions keep the variations they were seeded with.
func (s *characterService) UpdateGreetings(ctx context.Context, userId, characterId uuid.UUID, req *dto.UpdateGreetingsRequest) (*dto.CharacterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	character, err := s.findOwned(ctx, uow, userId, characterId)
	if err != nil {
		return nil, err
	}

	character.FirstMessage = req.FirstMessage
	character.AlternateGreetings = req.AlternateGreetings

	if err := uow.CharacterRepository().Update(ctx, character); err != nil {
		return nil, err
	}

	return toCharacterResponse(character), nil
}

func (s *characterService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, characterId uuid.UUID) (*entity.Character, error) {
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
	return character, nil
}

func toCharacterResponse(c *entity.Character) *dto.CharacterResponse {
	return &dto.CharacterResponse{
		Id:                 c.Id,
		Name:               c.Name,
		Description:        c.Description,
		Personality:        c.Personality,
		Scenario:           c.Scenario,
		FirstMessage:       c.FirstMessage,
		AlternateGreetings: c.AlternateGreetings,
		ExampleDialogue:    c.ExampleDialogue,
		SystemPrompt:       c.SystemPrompt,
		AvatarURL:          c.AvatarURL,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

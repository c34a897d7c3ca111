package mapper

import (
	"encoding/json"
	"time"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CharacterMapper struct{}

func NewCharacterMapper() *CharacterMapper {
	return &CharacterMapper{}
}

func (m *CharacterMapper) ToEntity(c *model.Character) *entity.Character {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var greetings []string
	if len(c.AlternateGreetings) > 0 {
		_ = json.Unmarshal(c.AlternateGreetings, &greetings)
	}

	return &entity.Character{
		Id:                 c.Id,
		UserId:             c.UserId,
		Name:               c.Name,
		Description:        c.Description,
		Personality:        c.Personality,
		Scenario:           c.Scenario,
		FirstMessage:       c.FirstMessage,
		AlternateGreetings: greetings,
		ExampleDialogue:    c.ExampleDialogue,
		SystemPrompt:       c.SystemPrompt,
		AvatarURL:          c.AvatarURL,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          updatedAt,
		DeletedAt:          deletedAt,
		IsDeleted:          c.DeletedAt.Valid,
	}
}

func (m *CharacterMapper) ToModel(c *entity.Character) *model.Character {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	var greetings datatypes.JSON
	if len(c.AlternateGreetings) > 0 {
		raw, err := json.Marshal(c.AlternateGreetings)
		if err == nil {
			greetings = raw
		}
	}

	return &model.Character{
		Id:                 c.Id,
		UserId:             c.UserId,
		Name:               c.Name,
		Description:        c.Description,
		Personality:        c.Personality,
		Scenario:           c.Scenario,
		FirstMessage:       c.FirstMessage,
		AlternateGreetings: greetings,
		ExampleDialogue:    c.ExampleDialogue,
		SystemPrompt:       c.SystemPrompt,
		AvatarURL:          c.AvatarURL,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          updatedAt,
		DeletedAt:          deletedAt,
	}
}

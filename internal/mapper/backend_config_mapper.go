package mapper

import (
	"encoding/json"
	"time"

	"ai-roleplay-be/internal/entity"
	"ai-roleplay-be/internal/model"

	"gorm.io/datatypes"
)

type BackendConfigMapper struct{}

func NewBackendConfigMapper() *BackendConfigMapper {
	return &BackendConfigMapper{}
}

func (m *BackendConfigMapper) ToEntity(c *model.BackendConfig) *entity.BackendConfig {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var sampling map[string]interface{}
	if len(c.Sampling) > 0 {
		_ = json.Unmarshal(c.Sampling, &sampling)
	}

	return &entity.BackendConfig{
		Id:        c.Id,
		UserId:    c.UserId,
		Name:      c.Name,
		Kind:      c.Kind,
		BaseURL:   c.BaseURL,
		APIKey:    c.APIKey,
		Model:     c.Model,
		Sampling:  sampling,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *BackendConfigMapper) ToModel(c *entity.BackendConfig) *model.BackendConfig {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	var sampling datatypes.JSON
	if len(c.Sampling) > 0 {
		raw, err := json.Marshal(c.Sampling)
		if err == nil {
			sampling = datatypes.JSON(raw)
		}
	}

	return &model.BackendConfig{
		Id:        c.Id,
		UserId:    c.UserId,
		Name:      c.Name,
		Kind:      c.Kind,
		BaseURL:   c.BaseURL,
		APIKey:    c.APIKey,
		Model:     c.Model,
		Sampling:  sampling,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

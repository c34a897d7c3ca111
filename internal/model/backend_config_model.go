package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BackendConfig struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name      string         `gorm:"type:varchar(100);not null"`
	Kind      string         `gorm:"type:varchar(50);not null"`
	BaseURL   string         `gorm:"type:text"`
	APIKey    string         `gorm:"type:text"` // stored as-is, never returned in list responses
	Model     string         `gorm:"type:varchar(200)"`
	Sampling  datatypes.JSON `gorm:"type:jsonb"` // opaque sampling parameters, passed through to the backend
	Active    bool           `gorm:"default:false;index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (BackendConfig) TableName() string {
	return "backend_configs"
}

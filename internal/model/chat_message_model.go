package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey"` // engine-assigned, not generated
	ChatSessionId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role             string         `gorm:"type:varchar(50);not null"`
	Content          string         `gorm:"type:text;not null"`
	Variations       datatypes.JSON `gorm:"type:jsonb"` // JSON array of alternative texts
	CurrentVariation int            `gorm:"default:0"`
	Status           string         `gorm:"type:varchar(20);not null;default:'complete'"`
	Aborted          bool           `gorm:"default:false"`
	Error            string         `gorm:"type:text"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

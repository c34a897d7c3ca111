package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Character struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId             uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Name               string         `gorm:"type:varchar(200);not null"`
	Description        string         `gorm:"type:text"`
	Personality        string         `gorm:"type:text"`
	Scenario           string         `gorm:"type:text"`
	FirstMessage       string         `gorm:"type:text"`
	AlternateGreetings datatypes.JSON `gorm:"type:jsonb"` // JSON array of alternative openers
	ExampleDialogue    string         `gorm:"type:text"`
	SystemPrompt       string         `gorm:"type:text"`
	AvatarURL          string         `gorm:"type:text"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (Character) TableName() string {
	return "characters"
}

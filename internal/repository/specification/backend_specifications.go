package specification

import "gorm.io/gorm"

// ActiveConfig selects the backend configuration currently in use.
type ActiveConfig struct{}

func (s ActiveConfig) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

package specification

import "gorm.io/gorm"

// Specification is a composable query filter. Repositories apply every
// specification they are given before executing the query.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

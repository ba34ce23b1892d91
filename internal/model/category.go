package model

import (
	"github.com/google/uuid"
)

// Category groups products for catalog navigation.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`

	AuditFields
	SoftDelete
}

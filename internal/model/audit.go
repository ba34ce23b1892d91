package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditFields carries the Who and When of every mutable row. CreatedBy is
// mandatory: services must resolve an actor before any insert.
type AuditFields struct {
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	UpdatedBy uuid.UUID `gorm:"type:uuid;not null" json:"updated_by"`
}

// StampCreate sets both actor columns for a fresh row.
func (a *AuditFields) StampCreate(actor uuid.UUID) {
	a.CreatedBy = actor
	a.UpdatedBy = actor
}

// StampUpdate records the actor of a mutation.
func (a *AuditFields) StampUpdate(actor uuid.UUID) {
	a.UpdatedBy = actor
}

// SoftDelete marks rows as deleted instead of removing them. Read queries
// must filter IsDeleted unless they explicitly include deleted rows
// (e.g. history reconstruction).
type SoftDelete struct {
	IsDeleted bool       `gorm:"not null;default:false;index" json:"-"`
	DeletedAt *time.Time `json:"-"`
	DeletedBy *uuid.UUID `gorm:"type:uuid" json:"-"`
}

// MarkDeleted flags the row as logically removed.
func (s *SoftDelete) MarkDeleted(actor uuid.UUID) {
	now := time.Now().UTC()
	s.IsDeleted = true
	s.DeletedAt = &now
	s.DeletedBy = &actor
}

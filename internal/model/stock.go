package model

import (
	"github.com/google/uuid"
)

// Movement types
const (
	MovementEntry      = "entry"
	MovementExit       = "exit"
	MovementAdjustment = "adjustment"
	MovementSale       = "sale"
	MovementReturn     = "return"
)

// ValidMovementType reports whether t is one of the known movement types.
func ValidMovementType(t string) bool {
	switch t {
	case MovementEntry, MovementExit, MovementAdjustment, MovementSale, MovementReturn:
		return true
	}
	return false
}

// Stock is the current on-hand quantity for one product. The quantity column
// is only written together with a StockMovement row.
type Stock struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"product_id"`
	Quantity       int       `gorm:"not null;default:0" json:"quantity"`
	AlertThreshold int       `gorm:"not null;default:10" json:"alert_threshold"`

	AuditFields
}

// IsLowStock reports whether the quantity has dropped to the alert threshold.
func (s *Stock) IsLowStock() bool {
	return s.Quantity <= s.AlertThreshold
}

// IsOutOfStock reports whether the product has no stock left.
func (s *Stock) IsOutOfStock() bool {
	return s.Quantity <= 0
}

// NextQuantity computes the quantity that would result from applying a
// movement of the given type and magnitude. For adjustments the magnitude is
// the absolute target quantity.
func (s *Stock) NextQuantity(movementType string, quantity int) int {
	switch movementType {
	case MovementEntry, MovementReturn:
		return s.Quantity + quantity
	case MovementExit, MovementSale:
		return s.Quantity - quantity
	case MovementAdjustment:
		return quantity
	}
	return s.Quantity
}

// BuildMovement snapshots before/after quantities for a movement about to be
// applied. The caller persists the movement and the updated stock atomically.
func (s *Stock) BuildMovement(movementType string, quantity int, reference, note string) *StockMovement {
	m := &StockMovement{
		StockID:        s.ID,
		ProductID:      s.ProductID,
		MovementType:   movementType,
		Quantity:       quantity,
		QuantityBefore: s.Quantity,
		Reference:      reference,
		Note:           note,
	}
	s.Quantity = s.NextQuantity(movementType, quantity)
	m.QuantityAfter = s.Quantity
	return m
}

// StockMovement is one immutable ledger entry. Ordered by CreatedAt, the
// movements of a product reconstruct its current quantity exactly.
type StockMovement struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StockID        uuid.UUID `gorm:"type:uuid;not null;index" json:"stock_id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	MovementType   string    `gorm:"type:varchar(20);not null" json:"movement_type"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	QuantityBefore int       `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int       `gorm:"not null" json:"quantity_after"`
	Reference      string    `gorm:"type:varchar(100)" json:"reference,omitempty"`
	Note           string    `gorm:"type:text" json:"note,omitempty"`

	AuditFields
}

// SignedDelta is the effective quantity change of this movement.
func (m *StockMovement) SignedDelta() int {
	return m.QuantityAfter - m.QuantityBefore
}

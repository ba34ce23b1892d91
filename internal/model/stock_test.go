package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextQuantity(t *testing.T) {
	s := &Stock{Quantity: 10}

	assert.Equal(t, 15, s.NextQuantity(MovementEntry, 5))
	assert.Equal(t, 13, s.NextQuantity(MovementReturn, 3))
	assert.Equal(t, 6, s.NextQuantity(MovementExit, 4))
	assert.Equal(t, 2, s.NextQuantity(MovementSale, 8))
	// Adjustment is the absolute target, not a delta.
	assert.Equal(t, 42, s.NextQuantity(MovementAdjustment, 42))
}

func TestBuildMovementSnapshotsBeforeAfter(t *testing.T) {
	s := &Stock{Quantity: 20}

	m := s.BuildMovement(MovementSale, 7, "CMD-1", "")
	assert.Equal(t, 20, m.QuantityBefore)
	assert.Equal(t, 13, m.QuantityAfter)
	assert.Equal(t, 13, s.Quantity)
	assert.Equal(t, -7, m.SignedDelta())

	m = s.BuildMovement(MovementAdjustment, 50, "", "inventory recount")
	assert.Equal(t, 13, m.QuantityBefore)
	assert.Equal(t, 50, m.QuantityAfter)
	assert.Equal(t, 37, m.SignedDelta())
}

func TestLedgerReconstructsQuantity(t *testing.T) {
	s := &Stock{Quantity: 0}

	var movements []*StockMovement
	movements = append(movements, s.BuildMovement(MovementEntry, 100, "", ""))
	movements = append(movements, s.BuildMovement(MovementSale, 30, "CMD-1", ""))
	movements = append(movements, s.BuildMovement(MovementReturn, 5, "CMD-1", ""))
	movements = append(movements, s.BuildMovement(MovementAdjustment, 60, "", "recount"))
	movements = append(movements, s.BuildMovement(MovementExit, 12, "", "damaged"))

	replayed := 0
	for _, m := range movements {
		assert.Equal(t, replayed, m.QuantityBefore)
		replayed += m.SignedDelta()
		assert.Equal(t, replayed, m.QuantityAfter)
	}
	assert.Equal(t, s.Quantity, replayed)
	assert.Equal(t, 48, replayed)
}

func TestLowAndOutOfStock(t *testing.T) {
	s := &Stock{Quantity: 10, AlertThreshold: 10}
	assert.True(t, s.IsLowStock())
	assert.False(t, s.IsOutOfStock())

	s.Quantity = 11
	assert.False(t, s.IsLowStock())

	s.Quantity = 0
	assert.True(t, s.IsOutOfStock())
	assert.True(t, s.IsLowStock())
}

func TestValidMovementType(t *testing.T) {
	for _, mt := range []string{MovementEntry, MovementExit, MovementAdjustment, MovementSale, MovementReturn} {
		assert.True(t, ValidMovementType(mt), mt)
	}
	assert.False(t, ValidMovementType("transfer"))
	assert.False(t, ValidMovementType(""))
}

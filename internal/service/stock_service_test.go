package service

import (
	"context"
	"testing"

	"boutique-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMovementWritesLedgerRow(t *testing.T) {
	f := newFixture()
	p := f.seedProduct("tshirt", 20, 10)

	movement, quantity, err := f.stockSvc.ApplyMovement(context.Background(), f.actor, MovementRequest{
		ProductID: p.ID.String(),
		Type:      model.MovementEntry,
		Quantity:  5,
		Reference: "PO-42",
	})
	require.NoError(t, err)

	assert.Equal(t, 15, quantity)
	assert.Equal(t, 10, movement.QuantityBefore)
	assert.Equal(t, 15, movement.QuantityAfter)
	assert.Equal(t, "PO-42", movement.Reference)
	assert.Equal(t, 15, f.quantityOf(p.ID))
}

func TestApplyMovementInsufficientStock(t *testing.T) {
	f := newFixture()
	p := f.seedProduct("tshirt", 20, 3)

	_, _, err := f.stockSvc.ApplyMovement(context.Background(), f.actor, MovementRequest{
		ProductID: p.ID.String(),
		Type:      model.MovementExit,
		Quantity:  5,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Rejected movements leave no trace.
	assert.Equal(t, 3, f.quantityOf(p.ID))
	assert.Empty(t, f.stocks.movementTypesFor(p.ID))
}

func TestAdjustmentSetsAbsoluteQuantity(t *testing.T) {
	f := newFixture()
	p := f.seedProduct("tshirt", 20, 17)

	movement, quantity, err := f.stockSvc.ApplyMovement(context.Background(), f.actor, MovementRequest{
		ProductID: p.ID.String(),
		Type:      model.MovementAdjustment,
		Quantity:  40,
		Note:      "inventory recount",
	})
	require.NoError(t, err)

	assert.Equal(t, 40, quantity)
	assert.Equal(t, 17, movement.QuantityBefore)
	assert.Equal(t, 23, movement.SignedDelta())
}

func TestMovementValidation(t *testing.T) {
	f := newFixture()
	p := f.seedProduct("tshirt", 20, 10)

	_, _, err := f.stockSvc.ApplyMovement(context.Background(), f.actor, MovementRequest{
		ProductID: p.ID.String(), Type: "transfer", Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidMovementType)

	_, _, err = f.stockSvc.ApplyMovement(context.Background(), f.actor, MovementRequest{
		ProductID: p.ID.String(), Type: model.MovementEntry, Quantity: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, err = f.stockSvc.ApplyMovement(context.Background(), f.actor, MovementRequest{
		ProductID: p.ID.String(), Type: model.MovementAdjustment, Quantity: -1,
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, err = f.stockSvc.ApplyMovement(context.Background(), "", MovementRequest{
		ProductID: p.ID.String(), Type: model.MovementEntry, Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrMissingActor)
}

func TestMovementCreatesStockLazily(t *testing.T) {
	f := newFixture()
	productID := uuid.New()

	_, quantity, err := f.stockSvc.ApplyMovement(context.Background(), f.actor, MovementRequest{
		ProductID: productID.String(),
		Type:      model.MovementEntry,
		Quantity:  8,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, quantity)
	assert.Equal(t, 8, f.quantityOf(productID))
}

func TestEnsureStockWithInitialQuantity(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	productID := uuid.New()

	stock, err := f.stockSvc.EnsureStock(context.Background(), actor, productID, 25, 5)
	require.NoError(t, err)

	assert.Equal(t, 25, stock.Quantity)
	assert.Equal(t, 5, stock.AlertThreshold)
	// The opening balance is itself a ledger entry.
	assert.Equal(t, []string{model.MovementEntry}, f.stocks.movementTypesFor(productID))

	_, err = f.stockSvc.EnsureStock(context.Background(), uuid.Nil, productID, 1, 1)
	assert.ErrorIs(t, err, ErrMissingActor)
}

func TestLedgerReplayMatchesCurrentQuantity(t *testing.T) {
	f := newFixture()
	p := f.seedProduct("tshirt", 20, 0)

	steps := []MovementRequest{
		{ProductID: p.ID.String(), Type: model.MovementEntry, Quantity: 100},
		{ProductID: p.ID.String(), Type: model.MovementSale, Quantity: 30},
		{ProductID: p.ID.String(), Type: model.MovementReturn, Quantity: 5},
		{ProductID: p.ID.String(), Type: model.MovementAdjustment, Quantity: 60},
		{ProductID: p.ID.String(), Type: model.MovementExit, Quantity: 12},
	}
	for _, step := range steps {
		_, _, err := f.stockSvc.ApplyMovement(context.Background(), f.actor, step)
		require.NoError(t, err)
	}

	movements, err := f.stockSvc.Movements(context.Background(), p.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, movements, len(steps))

	replayed := 0
	for _, m := range movements {
		assert.Equal(t, replayed, m.QuantityBefore)
		replayed += m.SignedDelta()
	}

	current, err := f.stockSvc.CurrentQuantity(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, current, replayed)
	assert.Equal(t, 48, current)
}

func TestListStocksLowFilterCountsOutOfStock(t *testing.T) {
	f := newFixture()
	f.seedProduct("tshirt", 20, 0) // out of stock, still low
	f.seedProduct("cap", 15, 3)    // below the threshold of 5
	f.seedProduct("belt", 10, 40)  // healthy

	rows, total, err := f.stockSvc.ListStocks(context.Background(), 1, 20, true, false, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.True(t, row.IsLowStock)
	}

	rows, total, err = f.stockSvc.ListStocks(context.Background(), 1, 20, false, true, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsOutOfStock)
}

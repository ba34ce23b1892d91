package model

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusDraft, StatusConfirmed, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusInPreparation, false},
		{StatusDraft, StatusDelivered, false},
		{StatusConfirmed, StatusInPreparation, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusDraft, false},
		{StatusConfirmed, StatusDelivered, false},
		{StatusInPreparation, StatusInDelivery, true},
		{StatusInPreparation, StatusCancelled, true},
		{StatusInPreparation, StatusConfirmed, false},
		{StatusInDelivery, StatusDelivered, true},
		{StatusInDelivery, StatusCancelled, true},
		{StatusInDelivery, StatusInPreparation, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusDraft, false},
		{StatusCancelled, StatusDraft, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tc := range cases {
		o := &Order{Status: tc.from}
		assert.Equal(t, tc.ok, o.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, terminal := range []string{StatusDelivered, StatusCancelled} {
		o := &Order{Status: terminal}
		assert.True(t, o.IsTerminal())
		for _, target := range OrderStatuses {
			assert.False(t, o.CanTransitionTo(target), "%s must not leave %s", terminal, target)
		}
	}
}

func TestApplyStatusRecordsWorkflowDates(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	o := &Order{Status: StatusDraft}
	o.ApplyStatus(StatusConfirmed, now)
	require.NotNil(t, o.ConfirmedAt)
	assert.Equal(t, now, *o.ConfirmedAt)
	assert.True(t, o.StockConsumed())

	o.ApplyStatus(StatusCancelled, now.Add(time.Hour))
	require.NotNil(t, o.CancelledAt)
	assert.Equal(t, StatusCancelled, o.Status)
	// Confirmation timestamp survives cancellation; it proves stock was consumed.
	assert.True(t, o.StockConsumed())
}

func TestGenerateNumeroFormat(t *testing.T) {
	numero := GenerateNumero()
	assert.Regexp(t, regexp.MustCompile(`^CMD-\d{14}-\d{3}$`), numero)
}

func TestCalculateTotal(t *testing.T) {
	o := &Order{
		Discount:    decimal.NewFromInt(5),
		DeliveryFee: decimal.NewFromInt(10),
		Items: []OrderItem{
			{UnitPrice: decimal.NewFromInt(20), Quantity: 2, LineTotal: decimal.NewFromInt(40)},
			{UnitPrice: decimal.NewFromInt(15), Quantity: 1, LineTotal: decimal.NewFromInt(15)},
		},
	}

	total := o.CalculateTotal()
	assert.True(t, decimal.NewFromInt(60).Equal(total), "40 + 15 - 5 + 10 = 60, got %s", total)

	// Recomputing from the same lines never drifts.
	again := o.CalculateTotal()
	assert.True(t, total.Equal(again))
}

func TestItemsCountIsDistinctLines(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{Quantity: 5},
			{Quantity: 2},
		},
	}
	assert.Equal(t, 2, o.ItemsCount())
}

func TestIsPaidIgnoresStatus(t *testing.T) {
	o := &Order{Status: StatusDraft}
	assert.False(t, o.IsPaid())

	now := time.Now()
	o.PaidAt = &now
	assert.True(t, o.IsPaid())

	// Moving through the workflow never touches payment state.
	o.ApplyStatus(StatusConfirmed, now)
	o.ApplyStatus(StatusCancelled, now)
	assert.True(t, o.IsPaid())
}

func TestCalculateLineTotal(t *testing.T) {
	item := &OrderItem{UnitPrice: decimal.NewFromFloat(12.50), Quantity: 3}
	assert.True(t, decimal.NewFromFloat(37.50).Equal(item.CalculateLineTotal()))
	assert.True(t, decimal.NewFromFloat(37.50).Equal(item.LineTotal))
}

func TestToggleVerification(t *testing.T) {
	item := &OrderItem{VerificationStatus: VerificationToVerify}

	item.ToggleVerification()
	assert.Equal(t, VerificationOK, item.VerificationStatus)

	item.ToggleVerification()
	assert.Equal(t, VerificationToVerify, item.VerificationStatus)
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, ValidOrderStatus(s), s)
	}
	assert.False(t, ValidOrderStatus("paid"))
	assert.False(t, ValidOrderStatus(""))
}

func TestEventForStatus(t *testing.T) {
	assert.Equal(t, EventConfirmed, EventForStatus(StatusConfirmed))
	assert.Equal(t, EventDelivered, EventForStatus(StatusDelivered))
	assert.Equal(t, EventCancelled, EventForStatus(StatusCancelled))
	assert.Empty(t, EventForStatus(StatusDraft))
}

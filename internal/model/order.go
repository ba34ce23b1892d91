package model

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. Payment is deliberately not a status: it is recorded on the
// order independently of the workflow.
const (
	StatusDraft         = "draft"
	StatusConfirmed     = "confirmed"
	StatusInPreparation = "in_preparation"
	StatusInDelivery    = "in_delivery"
	StatusDelivered     = "delivered"
	StatusCancelled     = "cancelled"
)

// OrderStatuses lists every workflow status in progression order.
var OrderStatuses = []string{
	StatusDraft,
	StatusConfirmed,
	StatusInPreparation,
	StatusInDelivery,
	StatusDelivered,
	StatusCancelled,
}

// validTransitions is the closed workflow table. Delivered and cancelled are
// terminal.
var validTransitions = map[string][]string{
	StatusDraft:         {StatusConfirmed, StatusCancelled},
	StatusConfirmed:     {StatusInPreparation, StatusCancelled},
	StatusInPreparation: {StatusInDelivery, StatusCancelled},
	StatusInDelivery:    {StatusDelivered, StatusCancelled},
	StatusDelivered:     {},
	StatusCancelled:     {},
}

// ValidOrderStatus reports whether s is a known workflow status.
func ValidOrderStatus(s string) bool {
	_, ok := validTransitions[s]
	return ok
}

// Item verification statuses (back-office checklist, independent of workflow)
const (
	VerificationToVerify = "to_verify"
	VerificationOK       = "ok"
)

// ValidVerificationStatus reports whether s is a known verification status.
func ValidVerificationStatus(s string) bool {
	return s == VerificationToVerify || s == VerificationOK
}

// Payment types
const (
	PaymentCash        = "cash"
	PaymentMobileMoney = "mobile_money"
)

// Order history event kinds
const (
	EventCreated         = "CREATED"
	EventConfirmed       = "CONFIRMED"
	EventPaid            = "PAID"
	EventInPreparation   = "IN_PREPARATION"
	EventInDelivery      = "IN_DELIVERY"
	EventDelivered       = "DELIVERED"
	EventCancelled       = "CANCELLED"
	EventItemAdded       = "ITEM_ADDED"
	EventItemRemoved     = "ITEM_REMOVED"
	EventItemUpdated     = "ITEM_UPDATED"
	EventCourierAssigned = "COURIER_ASSIGNED"
)

// statusEvents maps a successful transition target to its history event kind.
var statusEvents = map[string]string{
	StatusConfirmed:     EventConfirmed,
	StatusInPreparation: EventInPreparation,
	StatusInDelivery:    EventInDelivery,
	StatusDelivered:     EventDelivered,
	StatusCancelled:     EventCancelled,
}

// EventForStatus returns the history event kind recorded for a transition
// into status.
func EventForStatus(status string) string {
	return statusEvents[status]
}

// Order is the aggregate root of the lifecycle engine. It owns its items;
// item structure is frozen once the order leaves draft.
type Order struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Numero string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"numero"`
	Status string    `gorm:"type:varchar(30);not null;default:'draft';index" json:"status"`

	// Client
	ClientName  string `gorm:"type:varchar(200);not null" json:"client_name"`
	ClientPhone string `gorm:"type:varchar(20)" json:"client_phone,omitempty"`
	ClientEmail string `gorm:"type:varchar(255)" json:"client_email,omitempty"`

	// Delivery
	City            string     `gorm:"type:varchar(100)" json:"city,omitempty"`
	DeliveryAddress string     `gorm:"type:text" json:"delivery_address,omitempty"`
	Landmark        string     `gorm:"type:varchar(255)" json:"landmark,omitempty"`
	DesiredDate     *time.Time `json:"desired_date,omitempty"`

	// Amounts. Total is always recomputed from the item lines, never patched.
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	Discount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	DeliveryFee decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"delivery_fee"`

	// Payment snapshot, orthogonal to Status. A single record per order:
	// recording again overwrites it.
	PaymentType       string           `gorm:"type:varchar(20)" json:"payment_type,omitempty"`
	MobileMoneyNumber string           `gorm:"type:varchar(30)" json:"mobile_money_number,omitempty"`
	MobileMoneyRef    string           `gorm:"type:varchar(100)" json:"mobile_money_ref,omitempty"`
	AmountPaid        *decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount_paid,omitempty"`
	PaidAt            *time.Time       `json:"paid_at,omitempty"`

	// Workflow dates
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	PreparedAt  *time.Time `json:"prepared_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CancellationReason string `gorm:"type:text" json:"cancellation_reason,omitempty"`
	Notes              string `gorm:"type:text" json:"notes,omitempty"`

	CourierID *uuid.UUID `gorm:"type:uuid" json:"courier_id,omitempty"`
	Courier   *User      `gorm:"foreignKey:CourierID" json:"courier,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	AuditFields
	SoftDelete
}

// GenerateNumero builds a unique human-readable order number.
func GenerateNumero() string {
	return fmt.Sprintf("CMD-%s-%03d", time.Now().UTC().Format("20060102150405"), rand.Intn(900)+100)
}

// CanTransitionTo checks the workflow table for the requested move.
func (o *Order) CanTransitionTo(target string) bool {
	for _, allowed := range validTransitions[o.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ApplyStatus sets the status and records the matching workflow date. The
// caller must have validated the transition.
func (o *Order) ApplyStatus(target string, now time.Time) {
	o.Status = target
	switch target {
	case StatusConfirmed:
		o.ConfirmedAt = &now
	case StatusInPreparation:
		o.PreparedAt = &now
	case StatusInDelivery:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
	}
}

// StockConsumed reports whether the order has already consumed stock, i.e. it
// reached confirmed at some point. Cancelling such an order must reverse the
// consumption.
func (o *Order) StockConsumed() bool {
	return o.ConfirmedAt != nil
}

// IsTerminal reports whether the order can no longer move.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// IsPaid derives payment state from the payment timestamp; it never looks at
// the workflow status.
func (o *Order) IsPaid() bool {
	return o.PaidAt != nil
}

// CalculateTotal recomputes the order total from scratch: sum of frozen line
// totals minus discount plus delivery fee.
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal)
	}
	o.Total = total.Sub(o.Discount).Add(o.DeliveryFee)
	return o.Total
}

// ItemsCount is the number of distinct lines, not the summed quantities.
func (o *Order) ItemsCount() int {
	return len(o.Items)
}

// OrderItem is one line of an order. Unit price is snapshotted from the
// product at add time and never re-read afterwards.
type OrderItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product            *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity           int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	LineTotal          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	VerificationStatus string          `gorm:"type:varchar(20);not null;default:'to_verify'" json:"verification_status"`

	AuditFields
}

// CalculateLineTotal refreshes the frozen line total from the snapshotted
// unit price.
func (i *OrderItem) CalculateLineTotal() decimal.Decimal {
	i.LineTotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return i.LineTotal
}

// ToggleVerification flips the checklist flag.
func (i *OrderItem) ToggleVerification() {
	if i.VerificationStatus == VerificationToVerify {
		i.VerificationStatus = VerificationOK
	} else {
		i.VerificationStatus = VerificationToVerify
	}
}

// OrderHistory is an insert-only journal entry describing a business change
// on an order. Rows are never updated or deleted.
type OrderHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Event     string    `gorm:"type:varchar(50);not null" json:"event"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// ActorName returns the display name for the history entry's actor.
func (h *OrderHistory) ActorName() string {
	if h.User == nil {
		return ""
	}
	return h.User.DisplayName()
}

package repository

import (
	"context"
	"errors"
	"time"

	"boutique-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	Status    string
	Search    string
	CourierID *uuid.UUID
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Save(ctx context.Context, order *model.Order) error
	// SaveGuarded persists the order only if its updated_at still matches
	// the loaded snapshot. A zero rows-affected update means another
	// writer got there first; callers receive ErrStaleRow.
	SaveGuarded(ctx context.Context, order *model.Order, loadedAt time.Time) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindByIDForUpdate locks the order row (without preloads) to serialize
	// concurrent lifecycle mutations on the same order.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByNumero(ctx context.Context, numero string) (*model.Order, error)
	CreateItem(ctx context.Context, item *model.OrderItem) error
	SaveItem(ctx context.Context, item *model.OrderItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*model.OrderItem, error)
	ItemsForOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
	List(ctx context.Context, page, limit int, filter OrderListFilter) ([]model.Order, int64, error)
	CountsByStatus(ctx context.Context) (map[string]int64, error)
}

// ErrStaleRow signals that a guarded save matched no row: the order changed
// under us since it was read. Deliberately distinct from
// gorm.ErrRecordNotFound so callers never mistake a write conflict for a
// missing order.
var ErrStaleRow = errors.New("stale order row")

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) Save(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit("Items", "Courier").Save(order).Error
}

func (r *orderRepository) SaveGuarded(ctx context.Context, order *model.Order, loadedAt time.Time) error {
	res := GetDB(ctx, r.db).
		Model(&model.Order{}).
		Omit("Items", "Courier").
		Where("id = ? AND updated_at = ?", order.ID, loadedAt).
		Select("*").
		Updates(order)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleRow
	}
	return nil
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.created_at asc") }).
		Preload("Items.Product").
		Preload("Courier").
		Where("id = ? AND is_deleted = false", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_deleted = false", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByNumero(ctx context.Context, numero string) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.created_at asc") }).
		Preload("Items.Product").
		Preload("Courier").
		Where("numero = ? AND is_deleted = false", numero).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) CreateItem(ctx context.Context, item *model.OrderItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *orderRepository) SaveItem(ctx context.Context, item *model.OrderItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *orderRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", itemID).Delete(&model.OrderItem{}).Error
}

func (r *orderRepository) FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*model.OrderItem, error) {
	var item model.OrderItem
	if err := GetDB(ctx, r.db).
		Where("id = ? AND order_id = ?", itemID, orderID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *orderRepository) ItemsForOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	var items []model.OrderItem
	if err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) List(ctx context.Context, page, limit int, filter OrderListFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{}).Where("is_deleted = false")
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		db = db.Where("numero ILIKE ? OR client_name ILIKE ? OR client_phone ILIKE ?", pattern, pattern, pattern)
	}
	if filter.CourierID != nil {
		db = db.Where("courier_id = ?", *filter.CourierID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("Courier").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) CountsByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := GetDB(ctx, r.db).
		Model(&model.Order{}).
		Select("status, count(id) as count").
		Where("is_deleted = false").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(model.OrderStatuses))
	for _, s := range model.OrderStatuses {
		counts[s] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

package repository

import (
	"context"

	"boutique-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderHistoryRepository is insert-only: the journal is never rewritten.
type OrderHistoryRepository interface {
	Create(ctx context.Context, entry *model.OrderHistory) error
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error)
}

type orderHistoryRepository struct {
	db *gorm.DB
}

func NewOrderHistoryRepository(db *gorm.DB) OrderHistoryRepository {
	return &orderHistoryRepository{db: db}
}

func (r *orderHistoryRepository) Create(ctx context.Context, entry *model.OrderHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *orderHistoryRepository) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error) {
	var entries []model.OrderHistory
	if err := GetDB(ctx, r.db).
		Preload("User").
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

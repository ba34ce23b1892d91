package repository

import (
	"context"

	"boutique-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceHistoryRepository is insert-only: no update or delete path exists.
type PriceHistoryRepository interface {
	Create(ctx context.Context, record *model.PriceHistory) error
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]model.PriceHistory, error)
}

type priceHistoryRepository struct {
	db *gorm.DB
}

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

func (r *priceHistoryRepository) Create(ctx context.Context, record *model.PriceHistory) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *priceHistoryRepository) ListForProduct(ctx context.Context, productID uuid.UUID) ([]model.PriceHistory, error) {
	var records []model.PriceHistory
	if err := GetDB(ctx, r.db).
		Where("product_id = ?", productID).
		Order("created_at asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

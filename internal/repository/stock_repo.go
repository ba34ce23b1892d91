package repository

import (
	"context"
	"time"

	"boutique-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockWithProduct pairs a stock row with its product for listings.
type StockWithProduct struct {
	Stock   model.Stock
	Product model.Product
}

type StockRepository interface {
	Create(ctx context.Context, stock *model.Stock) error
	Save(ctx context.Context, stock *model.Stock) error
	FindByProduct(ctx context.Context, productID uuid.UUID) (*model.Stock, error)
	// FindByProductForUpdate locks the stock row until the enclosing
	// transaction ends, serializing concurrent quantity checks.
	FindByProductForUpdate(ctx context.Context, productID uuid.UUID) (*model.Stock, error)
	CreateMovement(ctx context.Context, movement *model.StockMovement) error
	MovementsForProduct(ctx context.Context, productID uuid.UUID, from, to *time.Time) ([]model.StockMovement, error)
	ListWithProduct(ctx context.Context, page, limit int, lowOnly, outOnly bool, search string) ([]StockWithProduct, int64, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, stock *model.Stock) error {
	return GetDB(ctx, r.db).Create(stock).Error
}

func (r *stockRepository) Save(ctx context.Context, stock *model.Stock) error {
	return GetDB(ctx, r.db).Save(stock).Error
}

func (r *stockRepository) FindByProduct(ctx context.Context, productID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	if err := GetDB(ctx, r.db).Where("product_id = ?", productID).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) FindByProductForUpdate(ctx context.Context, productID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) CreateMovement(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *stockRepository) MovementsForProduct(ctx context.Context, productID uuid.UUID, from, to *time.Time) ([]model.StockMovement, error) {
	db := GetDB(ctx, r.db).Where("product_id = ?", productID)
	if from != nil {
		db = db.Where("created_at >= ?", *from)
	}
	if to != nil {
		db = db.Where("created_at < ?", *to)
	}

	var movements []model.StockMovement
	if err := db.Order("created_at asc").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *stockRepository) ListWithProduct(ctx context.Context, page, limit int, lowOnly, outOnly bool, search string) ([]StockWithProduct, int64, error) {
	db := GetDB(ctx, r.db).
		Table("stocks").
		Joins("JOIN products ON products.id = stocks.product_id").
		Where("products.is_deleted = false")

	// Matches model.Stock.IsLowStock: out-of-stock rows count as low too.
	if lowOnly {
		db = db.Where("stocks.quantity <= stocks.alert_threshold")
	}
	if outOnly {
		db = db.Where("stocks.quantity <= 0")
	}
	if search != "" {
		db = db.Where("products.name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stocks []model.Stock
	offset := (page - 1) * limit
	if err := db.Select("stocks.*").
		Order("stocks.updated_at desc").
		Offset(offset).Limit(limit).
		Find(&stocks).Error; err != nil {
		return nil, 0, err
	}

	result := make([]StockWithProduct, 0, len(stocks))
	for _, s := range stocks {
		var p model.Product
		if err := GetDB(ctx, r.db).Where("id = ?", s.ProductID).First(&p).Error; err != nil {
			return nil, 0, err
		}
		result = append(result, StockWithProduct{Stock: s, Product: p})
	}

	return result, total, nil
}

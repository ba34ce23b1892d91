package service

import (
	"context"
	"errors"
	"fmt"

	"boutique-backend/internal/model"
	"boutique-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	SKU            string          `json:"sku"`
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price" binding:"required"`
	PhotoURL       string          `json:"photo_url"`
	CategoryID     string          `json:"category_id" binding:"required"`
	InitialStock   int             `json:"initial_stock"`
	AlertThreshold int             `json:"alert_threshold"`
}

type UpdateProductRequest struct {
	SKU               *string          `json:"sku"`
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	PriceChangeReason string           `json:"price_change_reason"`
	PhotoURL          *string          `json:"photo_url"`
	IsActive          *bool            `json:"is_active"`
	CategoryID        *string          `json:"category_id"`
}

// ProductService manages the catalog and appends a price-history record in
// the same transaction as every price mutation.
type ProductService interface {
	CreateProduct(ctx context.Context, actorID string, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, actorID, productID string, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actorID, productID string) error
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, search string, categoryID *uuid.UUID) ([]model.Product, int64, error)
	PriceHistory(ctx context.Context, productID string) ([]model.PriceHistory, error)
}

type productService struct {
	productRepo      repository.ProductRepository
	categoryRepo     repository.CategoryRepository
	priceHistoryRepo repository.PriceHistoryRepository
	stockService     StockService
	txManager        repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	priceHistoryRepo repository.PriceHistoryRepository,
	stockService StockService,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo:      productRepo,
		categoryRepo:     categoryRepo,
		priceHistoryRepo: priceHistoryRepo,
		stockService:     stockService,
		txManager:        txManager,
	}
}

func (s *productService) CreateProduct(ctx context.Context, actorID string, req CreateProductRequest) (*model.Product, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, ErrInvalidQuantity
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", req.CategoryID, ErrUnknownEntity)
	}
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %s: %w", req.CategoryID, ErrUnknownEntity)
		}
		return nil, err
	}

	threshold := req.AlertThreshold
	if threshold <= 0 {
		threshold = 10
	}

	product := &model.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		PhotoURL:    req.PhotoURL,
		IsActive:    true,
		CategoryID:  categoryID,
	}
	product.StampCreate(actor)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			return err
		}
		// Every active product owns exactly one stock row.
		_, err := s.stockService.EnsureStock(txCtx, actor, product.ID, req.InitialStock, threshold)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.productRepo.FindByID(ctx, product.ID)
}

func (s *productService) UpdateProduct(ctx context.Context, actorID, productID string, req UpdateProductRequest) (*model.Product, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, ErrUnknownEntity)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %s: %w", productID, ErrUnknownEntity)
			}
			return err
		}

		if req.SKU != nil {
			product.SKU = *req.SKU
		}
		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.PhotoURL != nil {
			product.PhotoURL = *req.PhotoURL
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		if req.CategoryID != nil {
			cid, err := uuid.Parse(*req.CategoryID)
			if err != nil {
				return fmt.Errorf("category %s: %w", *req.CategoryID, ErrUnknownEntity)
			}
			if _, err := s.categoryRepo.FindByID(txCtx, cid); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("category %s: %w", *req.CategoryID, ErrUnknownEntity)
				}
				return err
			}
			product.CategoryID = cid
		}

		// Price changes append an immutable history record before the new
		// price is committed, inside this same transaction.
		if req.Price != nil && !req.Price.Equal(product.Price) {
			if req.Price.IsNegative() {
				return ErrInvalidQuantity
			}
			record := &model.PriceHistory{
				ProductID: product.ID,
				OldPrice:  product.Price,
				NewPrice:  *req.Price,
				Reason:    req.PriceChangeReason,
				CreatedBy: actor,
			}
			if err := s.priceHistoryRepo.Create(txCtx, record); err != nil {
				return err
			}
			product.Price = *req.Price
		}

		product.StampUpdate(actor)
		return s.productRepo.Save(txCtx, product)
	})
	if err != nil {
		return nil, err
	}

	return s.productRepo.FindByID(ctx, id)
}

func (s *productService) DeleteProduct(ctx context.Context, actorID, productID string) error {
	actor, err := resolveActor(actorID)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(productID)
	if err != nil {
		return fmt.Errorf("product %s: %w", productID, ErrUnknownEntity)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %s: %w", productID, ErrUnknownEntity)
			}
			return err
		}
		product.MarkDeleted(actor)
		product.StampUpdate(actor)
		return s.productRepo.Save(txCtx, product)
	})
}

func (s *productService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, ErrUnknownEntity)
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrUnknownEntity)
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int, search string, categoryID *uuid.UUID) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, page, limit, search, categoryID)
}

func (s *productService) PriceHistory(ctx context.Context, productID string) ([]model.PriceHistory, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, ErrUnknownEntity)
	}
	return s.priceHistoryRepo.ListForProduct(ctx, id)
}

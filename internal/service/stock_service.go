package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"boutique-backend/internal/model"
	"boutique-backend/internal/repository"
	ws "boutique-backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type MovementRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Reference string `json:"reference"`
	Note      string `json:"note"`
}

type StockResponse struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	ProductSKU     string `json:"product_sku"`
	Quantity       int    `json:"quantity"`
	AlertThreshold int    `json:"alert_threshold"`
	IsLowStock     bool   `json:"is_low_stock"`
	IsOutOfStock   bool   `json:"is_out_of_stock"`
}

// Websocket payload
type StockEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// StockService owns the per-product ledger: the stock quantity only ever
// changes together with an immutable movement row, in one transaction.
type StockService interface {
	ApplyMovement(ctx context.Context, actorID string, req MovementRequest) (*model.StockMovement, int, error)
	CurrentQuantity(ctx context.Context, productID uuid.UUID) (int, error)
	Movements(ctx context.Context, productID uuid.UUID, from, to *time.Time) ([]model.StockMovement, error)
	ListStocks(ctx context.Context, page, limit int, lowOnly, outOnly bool, search string) ([]StockResponse, int64, error)

	// EnsureStock creates the stock row for a new product.
	EnsureStock(ctx context.Context, actor uuid.UUID, productID uuid.UUID, initialQuantity, alertThreshold int) (*model.Stock, error)

	// DeductForOrder and ReturnForOrder run inside the caller's transaction
	// and apply one movement per order line, all-or-nothing.
	DeductForOrder(ctx context.Context, actor uuid.UUID, order *model.Order) error
	ReturnForOrder(ctx context.Context, actor uuid.UUID, order *model.Order) error
}

type stockService struct {
	stockRepo repository.StockRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewStockService(
	stockRepo repository.StockRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		stockRepo: stockRepo,
		txManager: txManager,
		hub:       hub,
	}
}

// validateMovement rejects malformed magnitudes before any row is touched.
func validateMovement(movementType string, quantity int) error {
	if !model.ValidMovementType(movementType) {
		return ErrInvalidMovementType
	}
	switch movementType {
	case model.MovementAdjustment:
		if quantity < 0 {
			return ErrInvalidQuantity
		}
	default:
		if quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

func (s *stockService) ApplyMovement(ctx context.Context, actorID string, req MovementRequest) (*model.StockMovement, int, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, 0, err
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, 0, fmt.Errorf("product %s: %w", req.ProductID, ErrUnknownEntity)
	}

	if err := validateMovement(req.Type, req.Quantity); err != nil {
		return nil, 0, err
	}

	var movement *model.StockMovement
	var newQuantity int

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stock, err := s.lockedStock(txCtx, actor, productID)
		if err != nil {
			return err
		}

		m, err := s.applyLocked(txCtx, actor, stock, req.Type, req.Quantity, req.Reference, req.Note)
		if err != nil {
			return err
		}

		movement = m
		newQuantity = stock.Quantity
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.broadcastAlert(movement.ProductID, newQuantity)

	return movement, newQuantity, nil
}

// lockedStock fetches the stock row FOR UPDATE, creating it lazily for
// products that have never moved.
func (s *stockService) lockedStock(ctx context.Context, actor uuid.UUID, productID uuid.UUID) (*model.Stock, error) {
	stock, err := s.stockRepo.FindByProductForUpdate(ctx, productID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &model.Stock{ProductID: productID, Quantity: 0, AlertThreshold: 10}
	created.StampCreate(actor)
	if err := s.stockRepo.Create(ctx, created); err != nil {
		return nil, err
	}
	// Re-read under lock so concurrent creators serialize on the row.
	return s.stockRepo.FindByProductForUpdate(ctx, productID)
}

// applyLocked writes the stock update and the movement row as one unit. The
// caller must hold the row lock and an open transaction.
func (s *stockService) applyLocked(ctx context.Context, actor uuid.UUID, stock *model.Stock, movementType string, quantity int, reference, note string) (*model.StockMovement, error) {
	next := stock.NextQuantity(movementType, quantity)
	if next < 0 {
		return nil, fmt.Errorf("product %s: available %d, requested %d: %w",
			stock.ProductID, stock.Quantity, quantity, ErrInsufficientStock)
	}

	movement := stock.BuildMovement(movementType, quantity, reference, note)
	movement.StampCreate(actor)
	stock.StampUpdate(actor)

	if err := s.stockRepo.Save(ctx, stock); err != nil {
		return nil, err
	}
	if err := s.stockRepo.CreateMovement(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *stockService) CurrentQuantity(ctx context.Context, productID uuid.UUID) (int, error) {
	stock, err := s.stockRepo.FindByProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return stock.Quantity, nil
}

func (s *stockService) Movements(ctx context.Context, productID uuid.UUID, from, to *time.Time) ([]model.StockMovement, error) {
	return s.stockRepo.MovementsForProduct(ctx, productID, from, to)
}

func (s *stockService) ListStocks(ctx context.Context, page, limit int, lowOnly, outOnly bool, search string) ([]StockResponse, int64, error) {
	rows, total, err := s.stockRepo.ListWithProduct(ctx, page, limit, lowOnly, outOnly, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]StockResponse, 0, len(rows))
	for _, row := range rows {
		res = append(res, StockResponse{
			ProductID:      row.Product.ID.String(),
			ProductName:    row.Product.Name,
			ProductSKU:     row.Product.SKU,
			Quantity:       row.Stock.Quantity,
			AlertThreshold: row.Stock.AlertThreshold,
			IsLowStock:     row.Stock.IsLowStock(),
			IsOutOfStock:   row.Stock.IsOutOfStock(),
		})
	}

	return res, total, nil
}

func (s *stockService) EnsureStock(ctx context.Context, actor uuid.UUID, productID uuid.UUID, initialQuantity, alertThreshold int) (*model.Stock, error) {
	if actor == uuid.Nil {
		return nil, ErrMissingActor
	}
	if initialQuantity < 0 || alertThreshold < 0 {
		return nil, ErrInvalidQuantity
	}

	stock := &model.Stock{
		ProductID:      productID,
		Quantity:       0,
		AlertThreshold: alertThreshold,
	}
	stock.StampCreate(actor)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.stockRepo.Create(txCtx, stock); err != nil {
			return err
		}
		if initialQuantity > 0 {
			_, err := s.applyLocked(txCtx, actor, stock, model.MovementEntry, initialQuantity, "", "initial stock")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

func (s *stockService) DeductForOrder(ctx context.Context, actor uuid.UUID, order *model.Order) error {
	return s.moveForOrder(ctx, actor, order, model.MovementSale, fmt.Sprintf("sale order %s", order.Numero))
}

func (s *stockService) ReturnForOrder(ctx context.Context, actor uuid.UUID, order *model.Order) error {
	return s.moveForOrder(ctx, actor, order, model.MovementReturn, fmt.Sprintf("return cancelled order %s", order.Numero))
}

func (s *stockService) moveForOrder(ctx context.Context, actor uuid.UUID, order *model.Order, movementType, note string) error {
	if actor == uuid.Nil {
		return ErrMissingActor
	}

	// Lock stock rows in a stable order so two overlapping confirmations
	// of multi-line orders cannot deadlock each other.
	items := make([]model.OrderItem, len(order.Items))
	copy(items, order.Items)
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID.String() < items[j].ProductID.String()
	})

	for _, item := range items {
		stock, err := s.lockedStock(ctx, actor, item.ProductID)
		if err != nil {
			return err
		}
		if _, err := s.applyLocked(ctx, actor, stock, movementType, item.Quantity, order.Numero, note); err != nil {
			return err
		}
	}
	return nil
}

// broadcastAlert pushes a low/out-of-stock notification to connected clients.
func (s *stockService) broadcastAlert(productID uuid.UUID, quantity int) {
	if s.hub == nil {
		return
	}
	event := StockEvent{
		Event: "stock.updated",
		Data: map[string]interface{}{
			"product_id": productID.String(),
			"quantity":   quantity,
		},
	}
	if payload, err := json.Marshal(event); err == nil {
		s.hub.Broadcast <- payload
	}
}

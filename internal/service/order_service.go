package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boutique-backend/internal/model"
	"boutique-backend/internal/repository"
	ws "boutique-backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	ClientName      string             `json:"client_name" binding:"required"`
	ClientPhone     string             `json:"client_phone"`
	ClientEmail     string             `json:"client_email" binding:"omitempty,email"`
	City            string             `json:"city"`
	DeliveryAddress string             `json:"delivery_address"`
	Landmark        string             `json:"landmark"`
	DesiredDate     *time.Time         `json:"desired_date"`
	Discount        decimal.Decimal    `json:"discount"`
	DeliveryFee     decimal.Decimal    `json:"delivery_fee"`
	Notes           string             `json:"notes"`
	Items           []OrderItemRequest `json:"items" binding:"dive"`
}

type UpdateOrderRequest struct {
	ClientName      *string          `json:"client_name"`
	ClientPhone     *string          `json:"client_phone"`
	ClientEmail     *string          `json:"client_email" binding:"omitempty,email"`
	City            *string          `json:"city"`
	DeliveryAddress *string          `json:"delivery_address"`
	Landmark        *string          `json:"landmark"`
	DesiredDate     *time.Time       `json:"desired_date"`
	Discount        *decimal.Decimal `json:"discount"`
	DeliveryFee     *decimal.Decimal `json:"delivery_fee"`
	Notes           *string          `json:"notes"`
}

type PaymentRequest struct {
	Type              string          `json:"type" binding:"required"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	MobileMoneyNumber string          `json:"mobile_money_number"`
	MobileMoneyRef    string          `json:"mobile_money_ref"`
}

// Websocket payload
type OrderEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// OrderService is the order lifecycle engine: the status machine, its stock
// reconciliation, the payment snapshot, item verification, and the history
// journal. Every mutation runs in one transaction with the history entries it
// produces.
type OrderService interface {
	CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*model.Order, error)
	UpdateOrder(ctx context.Context, actorID, orderID string, req UpdateOrderRequest) (*model.Order, error)
	DeleteOrder(ctx context.Context, actorID, orderID string) error

	AddItem(ctx context.Context, actorID, orderID string, req OrderItemRequest) (*model.Order, error)
	UpdateItemQuantity(ctx context.Context, actorID, orderID, itemID string, quantity int) (*model.Order, error)
	RemoveItem(ctx context.Context, actorID, orderID, itemID string) (*model.Order, error)

	Confirm(ctx context.Context, actorID, orderID string) (*model.Order, error)
	UpdateStatus(ctx context.Context, actorID, orderID, newStatus, reason string) (*model.Order, error)
	Cancel(ctx context.Context, actorID, orderID, reason string) (*model.Order, error)

	RecordPayment(ctx context.Context, actorID, orderID string, req PaymentRequest) (*model.Order, error)

	SetItemVerification(ctx context.Context, actorID, orderID, itemID string, status *string) (*model.OrderItem, error)
	VerifyAllItems(ctx context.Context, actorID, orderID, status string) (*model.Order, error)

	AssignCourier(ctx context.Context, actorID, orderID, courierID string) (*model.Order, error)

	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderByNumero(ctx context.Context, numero string) (*model.Order, error)
	ListOrders(ctx context.Context, page, limit int, filter repository.OrderListFilter) ([]model.Order, int64, error)
	CountsByStatus(ctx context.Context) (map[string]int64, error)
	History(ctx context.Context, orderID string) ([]model.OrderHistory, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
	historyRepo  repository.OrderHistoryRepository
	stockService StockService
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	historyRepo repository.OrderHistoryRepository,
	stockService StockService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
		historyRepo:  historyRepo,
		stockService: stockService,
		txManager:    txManager,
		hub:          hub,
	}
}

func parseOrderID(orderID string) (uuid.UUID, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("order %s: %w", orderID, ErrUnknownEntity)
	}
	return id, nil
}

// lockedOrder loads the order FOR UPDATE together with its items, inside an
// open transaction. Concurrent lifecycle mutations on the same order
// serialize on this lock.
func (s *orderService) lockedOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrUnknownEntity)
		}
		return nil, err
	}
	items, err := s.orderRepo.ItemsForOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *orderService) recordHistory(ctx context.Context, orderID uuid.UUID, event, note string, actor uuid.UUID) error {
	return s.historyRepo.Create(ctx, &model.OrderHistory{
		OrderID: orderID,
		Event:   event,
		Note:    note,
		UserID:  actor,
	})
}

func (s *orderService) CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*model.Order, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	if req.Discount.IsNegative() || req.DeliveryFee.IsNegative() {
		return nil, ErrInvalidQuantity
	}

	order := &model.Order{
		Numero:          model.GenerateNumero(),
		Status:          model.StatusDraft,
		ClientName:      req.ClientName,
		ClientPhone:     req.ClientPhone,
		ClientEmail:     req.ClientEmail,
		City:            req.City,
		DeliveryAddress: req.DeliveryAddress,
		Landmark:        req.Landmark,
		DesiredDate:     req.DesiredDate,
		Discount:        req.Discount,
		DeliveryFee:     req.DeliveryFee,
		Notes:           req.Notes,
	}
	order.StampCreate(actor)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return err
		}

		for _, itemReq := range req.Items {
			item, err := s.buildItem(txCtx, actor, order.ID, itemReq)
			if err != nil {
				return err
			}
			if err := s.orderRepo.CreateItem(txCtx, item); err != nil {
				return err
			}
			order.Items = append(order.Items, *item)
		}

		order.CalculateTotal()
		order.StampUpdate(actor)
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return err
		}

		return s.recordHistory(txCtx, order.ID, model.EventCreated, "", actor)
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.FindByIDWithItems(ctx, order.ID)
}

// buildItem snapshots the current product price into a new line. The price
// never gets re-read after this point.
func (s *orderService) buildItem(ctx context.Context, actor uuid.UUID, orderID uuid.UUID, req OrderItemRequest) (*model.OrderItem, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", req.ProductID, ErrUnknownEntity)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", req.ProductID, ErrUnknownEntity)
		}
		return nil, err
	}

	item := &model.OrderItem{
		OrderID:            orderID,
		ProductID:          product.ID,
		Quantity:           req.Quantity,
		UnitPrice:          product.Price,
		VerificationStatus: model.VerificationToVerify,
	}
	item.CalculateLineTotal()
	item.StampCreate(actor)
	return item, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, actorID, orderID string, req UpdateOrderRequest) (*model.Order, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockedOrder(txCtx, id)
		if err != nil {
			return err
		}
		if order.Status != model.StatusDraft {
			return ErrInvalidOrderState
		}

		if req.ClientName != nil {
			order.ClientName = *req.ClientName
		}
		if req.ClientPhone != nil {
			order.ClientPhone = *req.ClientPhone
		}
		if req.ClientEmail != nil {
			order.ClientEmail = *req.ClientEmail
		}
		if req.City != nil {
			order.City = *req.City
		}
		if req.DeliveryAddress != nil {
			order.DeliveryAddress = *req.DeliveryAddress
		}
		if req.Landmark != nil {
			order.Landmark = *req.Landmark
		}
		if req.DesiredDate != nil {
			order.DesiredDate = req.DesiredDate
		}
		if req.Discount != nil {
			if req.Discount.IsNegative() {
				return ErrInvalidQuantity
			}
			order.Discount = *req.Discount
		}
		if req.DeliveryFee != nil {
			if req.DeliveryFee.IsNegative() {
				return ErrInvalidQuantity
			}
			order.DeliveryFee = *req.DeliveryFee
		}
		if req.Notes != nil {
			order.Notes = *req.Notes
		}

		order.CalculateTotal()
		order.StampUpdate(actor)
		return s.orderRepo.Save(txCtx, order)
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.FindByIDWithItems(ctx, id)
}

func (s *orderService) DeleteOrder(ctx context.Context, actorID, orderID string) error {
	actor, err := resolveActor(actorID)
	if err != nil {
		return err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockedOrder(txCtx, id)
		if err != nil {
			return err
		}
		if order.Status != model.StatusDraft && order.Status != model.StatusCancelled {
			return ErrInvalidOrderState
		}
		order.MarkDeleted(actor)
		order.StampUpdate(actor)
		return s.orderRepo.Save(txCtx, order)
	})
}

func (s *orderService) AddItem(ctx context.Context, actorID, orderID string, req OrderItemRequest) (*model.Order, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockedOrder(txCtx, id)
		if err != nil {
			return err
		}
		if order.Status != model.StatusDraft {
			return ErrInvalidOrderState
		}

		// A line already carrying the product gets its quantity bumped
		// instead of a duplicate line.
		var existing *model.OrderItem
		for i := range order.Items {
			if order.Items[i].ProductID.String() == req.ProductID {
				existing = &order.Items[i]
				break
			}
		}

		if existing != nil {
			if req.Quantity < 1 {
				return ErrInvalidQuantity
			}
			existing.Quantity += req.Quantity
			existing.CalculateLineTotal()
			existing.StampUpdate(actor)
			if err := s.orderRepo.SaveItem(txCtx, existing); err != nil {
				return err
			}
		} else {
			item, err := s.buildItem(txCtx, actor, order.ID, req)
			if err != nil {
				return err
			}
			if err := s.orderRepo.CreateItem(txCtx, item); err != nil {
				return err
			}
			order.Items = append(order.Items, *item)
		}

		order.CalculateTotal()
		order.StampUpdate(actor)
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return err
		}

		note := fmt.Sprintf("product %s x%d", req.ProductID, req.Quantity)
		return s.recordHistory(txCtx, order.ID, model.EventItemAdded, note, actor)
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.FindByIDWithItems(ctx, id)
}

func (s *orderService) UpdateItemQuantity(ctx context.Context, actorID, orderID, itemID string, quantity int) (*model.Order, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	iid, err := uuid.Parse(itemID)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrUnknownEntity)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockedOrder(txCtx, id)
		if err != nil {
			return err
		}
		if order.Status != model.StatusDraft {
			return ErrInvalidOrderState
		}

		item, err := s.orderRepo.FindItem(txCtx, id, iid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("item %s: %w", itemID, ErrUnknownEntity)
			}
			return err
		}

		item.Quantity = quantity
		item.CalculateLineTotal()
		item.StampUpdate(actor)
		if err := s.orderRepo.SaveItem(txCtx, item); err != nil {
			return err
		}

		for i := range order.Items {
			if order.Items[i].ID == item.ID {
				order.Items[i] = *item
			}
		}
		order.CalculateTotal()
		order.StampUpdate(actor)
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return err
		}

		note := fmt.Sprintf("quantity set to %d", quantity)
		return s.recordHistory(txCtx, order.ID, model.EventItemUpdated, note, actor)
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.FindByIDWithItems(ctx, id)
}

func (s *orderService) RemoveItem(ctx context.Context, actorID, orderID, itemID string) (*model.Order, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	iid, err := uuid.Parse(itemID)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrUnknownEntity)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockedOrder(txCtx, id)
		if err != nil {
			return err
		}
		if order.Status != model.StatusDraft {
			return ErrInvalidOrderState
		}

		if _, err := s.orderRepo.FindItem(txCtx, id, iid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("item %s: %w", itemID, ErrUnknownEntity)
			}
			return err
		}
		if err := s.orderRepo.DeleteItem(txCtx, iid); err != nil {
			return err
		}

		kept := order.Items[:0]
		for _, item := range order.Items {
			if item.ID != iid {
				kept = append(kept, item)
			}
		}
		order.Items = kept
		order.CalculateTotal()
		order.StampUpdate(actor)
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return err
		}

		return s.recordHistory(txCtx, order.ID, model.EventItemRemoved, "", actor)
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.FindByIDWithItems(ctx, id)
}

func (s *orderService) Confirm(ctx context.Context, actorID, orderID string) (*model.Order, error) {
	return s.UpdateStatus(ctx, actorID, orderID, model.StatusConfirmed, "")
}

func (s *orderService) Cancel(ctx context.Context, actorID, orderID, reason string) (*model.Order, error) {
	return s.UpdateStatus(ctx, actorID, orderID, model.StatusCancelled, reason)
}

func (s *orderService) UpdateStatus(ctx context.Context, actorID, orderID, newStatus, reason string) (*model.Order, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if !model.ValidOrderStatus(newStatus) {
		return nil, fmt.Errorf("status %q: %w", newStatus, ErrInvalidTransition)
	}

	// A lost guarded save means we raced another writer: re-read and retry
	// once before surfacing the conflict.
	err = s.transition(ctx, actor, id, newStatus, reason)
	if errors.Is(err, ErrConcurrentModification) {
		err = s.transition(ctx, actor, id, newStatus, reason)
	}
	if err != nil {
		return nil, err
	}

	s.broadcastStatus(id, newStatus)

	return s.orderRepo.FindByIDWithItems(ctx, id)
}

func (s *orderService) transition(ctx context.Context, actor uuid.UUID, id uuid.UUID, newStatus, reason string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockedOrder(txCtx, id)
		if err != nil {
			return err
		}

		if !order.CanTransitionTo(newStatus) {
			return fmt.Errorf("%s -> %s: %w", order.Status, newStatus, ErrInvalidTransition)
		}

		switch newStatus {
		case model.StatusConfirmed:
			if len(order.Items) == 0 {
				return fmt.Errorf("order has no items: %w", ErrInvalidOrderState)
			}
			// Reserve stock: one sale movement per line, all-or-nothing.
			if err := s.stockService.DeductForOrder(txCtx, actor, order); err != nil {
				return err
			}
		case model.StatusCancelled:
			if reason == "" {
				return ErrMissingCancellationReason
			}
			if order.StockConsumed() {
				if err := s.stockService.ReturnForOrder(txCtx, actor, order); err != nil {
					return err
				}
			}
			order.CancellationReason = reason
		}

		loadedAt := order.UpdatedAt
		order.ApplyStatus(newStatus, time.Now().UTC())
		order.StampUpdate(actor)
		if err := s.orderRepo.SaveGuarded(txCtx, order, loadedAt); err != nil {
			if errors.Is(err, repository.ErrStaleRow) {
				return ErrConcurrentModification
			}
			return err
		}

		note := reason
		return s.recordHistory(txCtx, order.ID, model.EventForStatus(newStatus), note, actor)
	})
}

func (s *orderService) RecordPayment(ctx context.Context, actorID, orderID string, req PaymentRequest) (*model.Order, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	if req.Type != model.PaymentCash && req.Type != model.PaymentMobileMoney {
		return nil, fmt.Errorf("payment type %q: %w", req.Type, ErrInvalidPaymentInput)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", ErrInvalidPaymentInput)
	}
	if req.Type == model.PaymentMobileMoney && (req.MobileMoneyNumber == "" || req.MobileMoneyRef == "") {
		return nil, fmt.Errorf("mobile money number and reference required: %w", ErrInvalidPaymentInput)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockedOrder(txCtx, id)
		if err != nil {
			return err
		}
		if order.Status == model.StatusDraft || order.Status == model.StatusCancelled {
			return fmt.Errorf("payment not allowed while %s: %w", order.Status, ErrInvalidPaymentInput)
		}

		firstPayment := !order.IsPaid()

		now := time.Now().UTC()
		order.PaymentType = req.Type
		order.MobileMoneyNumber = req.MobileMoneyNumber
		order.MobileMoneyRef = req.MobileMoneyRef
		order.AmountPaid = &req.Amount
		order.PaidAt = &now
		order.StampUpdate(actor)
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return err
		}

		if firstPayment {
			note := fmt.Sprintf("%s %s", req.Type, req.Amount.StringFixed(2))
			return s.recordHistory(txCtx, order.ID, model.EventPaid, note, actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.FindByIDWithItems(ctx, id)
}

func (s *orderService) SetItemVerification(ctx context.Context, actorID, orderID, itemID string, status *string) (*model.OrderItem, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	iid, err := uuid.Parse(itemID)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrUnknownEntity)
	}
	if status != nil && !model.ValidVerificationStatus(*status) {
		return nil, fmt.Errorf("verification status %q: %w", *status, ErrInvalidVerification)
	}

	var item *model.OrderItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.lockedOrder(txCtx, id); err != nil {
			return err
		}

		item, err = s.orderRepo.FindItem(txCtx, id, iid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("item %s: %w", itemID, ErrUnknownEntity)
			}
			return err
		}

		if status != nil {
			item.VerificationStatus = *status
		} else {
			item.ToggleVerification()
		}
		item.StampUpdate(actor)
		return s.orderRepo.SaveItem(txCtx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *orderService) VerifyAllItems(ctx context.Context, actorID, orderID, status string) (*model.Order, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if !model.ValidVerificationStatus(status) {
		return nil, fmt.Errorf("verification status %q: %w", status, ErrInvalidVerification)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockedOrder(txCtx, id)
		if err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].VerificationStatus = status
			order.Items[i].StampUpdate(actor)
			if err := s.orderRepo.SaveItem(txCtx, &order.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.FindByIDWithItems(ctx, id)
}

func (s *orderService) AssignCourier(ctx context.Context, actorID, orderID, courierID string) (*model.Order, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	cid, err := uuid.Parse(courierID)
	if err != nil {
		return nil, fmt.Errorf("courier %s: %w", courierID, ErrUnknownEntity)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockedOrder(txCtx, id)
		if err != nil {
			return err
		}

		courier, err := s.userRepo.FindActiveByRole(txCtx, cid, model.RoleLivreur)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("courier %s: %w", courierID, ErrUnknownEntity)
			}
			return err
		}

		order.CourierID = &courier.ID
		order.StampUpdate(actor)
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return err
		}

		return s.recordHistory(txCtx, order.ID, model.EventCourierAssigned, courier.DisplayName(), actor)
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.FindByIDWithItems(ctx, id)
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrUnknownEntity)
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrderByNumero(ctx context.Context, numero string) (*model.Order, error) {
	order, err := s.orderRepo.FindByNumero(ctx, numero)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", numero, ErrUnknownEntity)
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, page, limit int, filter repository.OrderListFilter) ([]model.Order, int64, error) {
	return s.orderRepo.List(ctx, page, limit, filter)
}

func (s *orderService) CountsByStatus(ctx context.Context) (map[string]int64, error) {
	return s.orderRepo.CountsByStatus(ctx)
}

func (s *orderService) History(ctx context.Context, orderID string) ([]model.OrderHistory, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.orderRepo.FindByIDWithItems(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrUnknownEntity)
		}
		return nil, err
	}
	return s.historyRepo.ListForOrder(ctx, id)
}

func (s *orderService) broadcastStatus(orderID uuid.UUID, status string) {
	if s.hub == nil {
		return
	}
	event := OrderEvent{
		Event: "order.status_changed",
		Data: map[string]interface{}{
			"order_id": orderID.String(),
			"status":   status,
		},
	}
	if payload, err := json.Marshal(event); err == nil {
		s.hub.Broadcast <- payload
	}
}

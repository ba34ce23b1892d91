package handler

import (
	"net/http"

	"boutique-backend/internal/middleware"
	"boutique-backend/internal/model"
	"boutique-backend/internal/repository"
	"boutique-backend/internal/service"
	"boutique-backend/pkg/pagination"
	"boutique-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders", middleware.RequireAuth())
	{
		orders.GET("", h.ListOrders)
		orders.GET("/statuses", h.ListStatuses)
		orders.GET("/counts", h.CountsByStatus)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/numero/:numero", h.GetOrderByNumero)
		orders.GET("/:id/history", h.GetHistory)

		orders.POST("", h.CreateOrder)
		orders.PUT("/:id", h.UpdateOrder)
		orders.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteOrder)

		orders.POST("/:id/items", h.AddItem)
		orders.PUT("/:id/items/:itemID", h.UpdateItemQuantity)
		orders.DELETE("/:id/items/:itemID", h.RemoveItem)

		orders.POST("/:id/confirm", h.ConfirmOrder)
		orders.PUT("/:id/status", h.UpdateStatus)
		orders.POST("/:id/cancel", h.CancelOrder)

		orders.POST("/:id/payment", h.RecordPayment)

		orders.PUT("/:id/items/:itemID/verification", middleware.RequireRole(model.RoleAdmin, model.RoleControleur), h.SetItemVerification)
		orders.PUT("/:id/verify-all", middleware.RequireRole(model.RoleAdmin, model.RoleControleur), h.VerifyAllItems)

		orders.PUT("/:id/courier", middleware.RequireRole(model.RoleAdmin), h.AssignCourier)
	}
}

// ListOrders returns a paginated, filterable order listing
// @Summary      List orders
// @Description  Retrieves a paginated list of orders, filterable by status, courier and free-text search
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Param        status   query     string  false  "Filter by order status"
// @Param        courier  query     string  false  "Filter by assigned courier ID"
// @Param        search   query     string  false  "Search by order number, client name or phone"
// @Success      200  {object}  response.Response{data=pagination.Envelope}
// @Failure      500  {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.OrderListFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	if raw := c.Query("courier"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid courier ID"))
			return
		}
		filter.CourierID = &id
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), p.Page, p.Limit, filter)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(orders, total, p)))
}

// ListStatuses enumerates the workflow statuses in progression order
// @Summary      List order statuses
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]string}
// @Router       /api/orders/statuses [get]
func (h *OrderHandler) ListStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, model.OrderStatuses))
}

// CountsByStatus returns the number of orders per status, zero-filled.
// @Summary      Order counts by status
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/orders/counts [get]
func (h *OrderHandler) CountsByStatus(c *gin.Context) {
	counts, err := h.orderService.CountsByStatus(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, counts))
}

// GetOrder returns one order with its items and history preloaded
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetOrderByNumero resolves an order by its public order number
// @Summary      Get order by number
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        numero  path      string  true  "Order number (CMD-...)"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/numero/{numero} [get]
func (h *OrderHandler) GetOrderByNumero(c *gin.Context) {
	order, err := h.orderService.GetOrderByNumero(c.Request.Context(), c.Param("numero"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetHistory returns the append-only event journal of one order
// @Summary      Get order history
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]model.OrderHistory}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/history [get]
func (h *OrderHandler) GetHistory(c *gin.Context) {
	history, err := h.orderService.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}

// CreateOrder creates a new draft order, optionally with initial items
// @Summary      Create order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// UpdateOrder updates client and delivery fields of a draft order
// @Summary      Update order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Order Payload"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DeleteOrder soft deletes an order. Only draft and cancelled orders qualify.
// @Summary      Delete order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// AddItem adds a product line to a draft order
// @Summary      Add order item
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Order ID"
// @Param        payload  body      service.OrderItemRequest  true  "Item Payload"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/items [post]
func (h *OrderHandler) AddItem(c *gin.Context) {
	var req service.OrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.AddItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateItemQuantity changes the quantity of an existing draft order line
// @Summary      Update order item quantity
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string  true  "Order ID"
// @Param        itemID   path  string  true  "Order item ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/items/{itemID} [put]
func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateItemQuantity(c.Request.Context(), c.GetString("userID"), c.Param("id"), c.Param("itemID"), req.Quantity)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// RemoveItem removes a line from a draft order
// @Summary      Remove order item
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id      path  string  true  "Order ID"
// @Param        itemID  path  string  true  "Order item ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/items/{itemID} [delete]
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	order, err := h.orderService.RemoveItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), c.Param("itemID"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ConfirmOrder confirms a draft order and deducts stock for every line
// @Summary      Confirm order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/confirm [post]
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	order, err := h.orderService.Confirm(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateStatus moves an order along its lifecycle
// @Summary      Update order status
// @Description  Applies one status transition. Illegal transitions are rejected, cancellation requires a reason.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Status, req.Reason)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelOrder cancels an order and restores consumed stock
// @Summary      Cancel order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Reason)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// RecordPayment records a payment against an order. Payment is independent of
// the status machine; it never moves the order.
// @Summary      Record payment
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Order ID"
// @Param        payload  body      service.PaymentRequest  true  "Payment Payload"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/payment [post]
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.RecordPayment(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// SetItemVerification sets or toggles the verification status of one item
// @Summary      Set item verification
// @Description  With a status in the payload the item is set to it; with an empty payload the status is toggled.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path  string  true  "Order ID"
// @Param        itemID  path  string  true  "Order item ID"
// @Success      200  {object}  response.Response{data=model.OrderItem}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/items/{itemID}/verification [put]
func (h *OrderHandler) SetItemVerification(c *gin.Context) {
	var req struct {
		Status *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.orderService.SetItemVerification(c.Request.Context(), c.GetString("userID"), c.Param("id"), c.Param("itemID"), req.Status)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// VerifyAllItems sets every item of an order to the given verification status
// @Summary      Verify all items
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/verify-all [put]
func (h *OrderHandler) VerifyAllItems(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.VerifyAllItems(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Status)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// AssignCourier assigns an active courier to an order
// @Summary      Assign courier
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/courier [put]
func (h *OrderHandler) AssignCourier(c *gin.Context) {
	var req struct {
		CourierID string `json:"courier_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.AssignCourier(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.CourierID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

package handler

import (
	"net/http"
	"time"

	"boutique-backend/internal/middleware"
	"boutique-backend/internal/model"
	"boutique-backend/internal/service"
	"boutique-backend/pkg/pagination"
	"boutique-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stocks := router.Group("/api/stocks", middleware.RequireAuth())
	{
		stocks.GET("", h.ListStocks)
		stocks.GET("/:productID", h.GetQuantity)
		stocks.GET("/:productID/movements", h.GetMovements)
		stocks.POST("/movements", middleware.RequireRole(model.RoleAdmin, model.RoleControleur), h.ApplyMovement)
	}
}

// ListStocks returns stock levels joined with their products
// @Summary      List stocks
// @Description  Retrieves paginated stock levels; filterable to low-stock or out-of-stock products only
// @Tags         stocks
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        low     query     bool    false  "Only products at or below their alert threshold"
// @Param        out     query     bool    false  "Only products with zero quantity"
// @Param        search  query     string  false  "Search by product name or SKU"
// @Success      200  {object}  response.Response{data=pagination.Envelope}
// @Failure      500  {object}  response.Response
// @Router       /api/stocks [get]
func (h *StockHandler) ListStocks(c *gin.Context) {
	p := pagination.Parse(c)
	lowOnly := c.Query("low") == "true"
	outOnly := c.Query("out") == "true"

	stocks, total, err := h.stockService.ListStocks(c.Request.Context(), p.Page, p.Limit, lowOnly, outOnly, c.Query("search"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Wrap(stocks, total, p)))
}

// GetQuantity returns the current quantity of one product
// @Summary      Get stock quantity
// @Tags         stocks
// @Security     BearerAuth
// @Produce      json
// @Param        productID  path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /api/stocks/{productID} [get]
func (h *StockHandler) GetQuantity(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product ID"))
		return
	}

	quantity, err := h.stockService.CurrentQuantity(c.Request.Context(), productID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"product_id": productID,
		"quantity":   quantity,
	}))
}

// GetMovements returns the movement ledger of one product, oldest first
// @Summary      Get stock movements
// @Tags         stocks
// @Security     BearerAuth
// @Produce      json
// @Param        productID  path      string  true   "Product ID"
// @Param        from       query     string  false  "Start of period (RFC 3339)"
// @Param        to         query     string  false  "End of period (RFC 3339)"
// @Success      200  {object}  response.Response{data=[]model.StockMovement}
// @Failure      400  {object}  response.Response
// @Router       /api/stocks/{productID}/movements [get]
func (h *StockHandler) GetMovements(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product ID"))
		return
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'from' timestamp, expected RFC 3339"))
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'to' timestamp, expected RFC 3339"))
			return
		}
		to = &t
	}

	movements, err := h.stockService.Movements(c.Request.Context(), productID, from, to)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, movements))
}

// ApplyMovement records a manual stock movement and returns the resulting quantity
// @Summary      Apply stock movement
// @Description  Records one entry, exit or adjustment movement. The stock quantity and the movement row change atomically.
// @Tags         stocks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.MovementRequest  true  "Movement Payload"
// @Success      201  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/stocks/movements [post]
func (h *StockHandler) ApplyMovement(c *gin.Context) {
	var req service.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, quantity, err := h.stockService.ApplyMovement(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{
		"movement": movement,
		"quantity": quantity,
	}))
}

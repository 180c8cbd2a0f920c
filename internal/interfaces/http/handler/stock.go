package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
)

// IdempotencyKeyHeader carries the client's retry key for stock movements
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// StockHandler applies stock movements
type StockHandler struct {
	BaseHandler
	stock *inventoryapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock *inventoryapp.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// RegisterRoutes mounts the stock routes on rg
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/products/:id/stock", h.AdjustStock)
}

// AdjustStock applies one movement and returns the updated product.
// A repeated Idempotency-Key for the same product is rejected with 409.
// POST /products/:id/stock
func (h *StockHandler) AdjustStock(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key must be at most 128 characters")
		return
	}

	var req inventoryapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	product, err := h.stock.AdjustStock(c.Request.Context(), req.ToCommand(id, key))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

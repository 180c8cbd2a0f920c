package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/pharmacy/backend/internal/application/catalog"
	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
)

// Movement history limits for GET /products/:id
const (
	DefaultRecentLogs = 10
	MaxRecentLogs     = 100
)

// ProductHandler serves the product directory. Creation and deletion go
// through the stock service so the opening balance and the movement log stay
// consistent with the product row.
type ProductHandler struct {
	BaseHandler
	products *catalogapp.ProductService
	stock    *inventoryapp.StockService

	defaultLogs int
	maxLogs     int
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *catalogapp.ProductService, stock *inventoryapp.StockService) *ProductHandler {
	return &ProductHandler{
		products:    products,
		stock:       stock,
		defaultLogs: DefaultRecentLogs,
		maxLogs:     MaxRecentLogs,
	}
}

// WithLogLimits overrides the default and maximum ?logs values
func (h *ProductHandler) WithLogLimits(defaultLimit, maxLimit int) *ProductHandler {
	if maxLimit > 0 {
		h.maxLogs = maxLimit
	}
	if defaultLimit >= 0 {
		h.defaultLogs = min(defaultLimit, h.maxLogs)
	}
	return h
}

// RegisterRoutes mounts the product routes on rg
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.GET("", h.List)
	products.POST("", h.Create)
	products.GET("/low-stock", h.LowStock)
	products.GET("/expiring", h.Expiring)
	products.GET("/:id", h.GetByID)
	products.PUT("/:id", h.Update)
	products.DELETE("/:id", h.Delete)
	products.GET("/:id/history", h.History)
}

// List returns a filtered, paginated product list
// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	products, total, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := catalogapp.ListRequest{Page: filter.Page, PageSize: filter.PageSize}.ToFilter()
	h.SuccessWithMeta(c, products, total, f.Page, f.PageSize)
}

// Create registers a product and records its opening balance
// POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	product, err := h.stock.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetByID returns a product with its most recent movements
// GET /products/:id?logs=N
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	limit, ok := h.QueryInt(c, "logs", h.defaultLogs)
	if !ok {
		return
	}
	limit = min(limit, h.maxLogs)

	product, err := h.products.GetByID(c.Request.Context(), id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Update changes product metadata; quantity is not updatable here
// PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	product, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete removes a product together with its movement log
// DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.stock.DeleteProduct(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// LowStock lists products at or below their reorder point
// GET /products/low-stock
func (h *ProductHandler) LowStock(c *gin.Context) {
	h.listWith(c, h.products.LowStock)
}

// Expiring lists products expiring within the configured window
// GET /products/expiring
func (h *ProductHandler) Expiring(c *gin.Context) {
	h.listWith(c, h.products.ExpiringSoon)
}

// History returns the paginated movement log of a product, newest first
// GET /products/:id/history
func (h *ProductHandler) History(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	entries, total, err := h.products.History(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := req.ToFilter()
	h.SuccessWithMeta(c, entries, total, f.Page, f.PageSize)
}

type productLister func(ctx context.Context, req catalogapp.ListRequest) ([]catalogapp.ProductResponse, int64, error)

func (h *ProductHandler) listWith(c *gin.Context, list productLister) {
	var req catalogapp.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	products, total, err := list(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := req.ToFilter()
	h.SuccessWithMeta(c, products, total, f.Page, f.PageSize)
}

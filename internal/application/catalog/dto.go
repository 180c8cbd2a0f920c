package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/partner"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU          string           `json:"sku" binding:"required,min=1,max=64"`
	Barcode      string           `json:"barcode" binding:"max=64"`
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	GenericName  string           `json:"generic_name" binding:"max=200"`
	Description  string           `json:"description" binding:"max=2000"`
	Manufacturer string           `json:"manufacturer" binding:"max=200"`
	DosageForm   string           `json:"dosage_form" binding:"max=50"`
	Unit         string           `json:"unit" binding:"max=20"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	Quantity     int              `json:"quantity" binding:"min=0,max=2147483647"`
	ReorderPoint int              `json:"reorder_point" binding:"min=0,max=2147483647"`
	ExpiryDate   *time.Time       `json:"expiry_date"`
	CategoryID   *uuid.UUID       `json:"category_id"`
	SupplierID   *uuid.UUID       `json:"supplier_id"`
}

// NewProduct builds the domain product described by the request
func (r CreateProductRequest) NewProduct() (*catalog.Product, error) {
	product, err := catalog.NewProduct(r.SKU, r.Name, r.Quantity, r.ReorderPoint)
	if err != nil {
		return nil, err
	}
	if err := product.SetDetails(r.Name, r.GenericName, r.Description, r.Manufacturer, r.DosageForm, r.Unit); err != nil {
		return nil, err
	}
	if err := product.SetBarcode(r.Barcode); err != nil {
		return nil, err
	}
	cost, selling := decimal.Zero, decimal.Zero
	if r.CostPrice != nil {
		cost = *r.CostPrice
	}
	if r.SellingPrice != nil {
		selling = *r.SellingPrice
	}
	if err := product.SetPrices(cost, selling); err != nil {
		return nil, err
	}
	product.SetExpiryDate(r.ExpiryDate)
	product.SetCategory(r.CategoryID)
	product.SetSupplier(r.SupplierID)
	return product, nil
}

// UpdateProductRequest represents a request to update product metadata.
// Quantity is not updatable here; stock changes go through stock movements.
type UpdateProductRequest struct {
	SKU           *string          `json:"sku" binding:"omitempty,min=1,max=64"`
	Barcode       *string          `json:"barcode" binding:"omitempty,max=64"`
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	GenericName   *string          `json:"generic_name" binding:"omitempty,max=200"`
	Description   *string          `json:"description" binding:"omitempty,max=2000"`
	Manufacturer  *string          `json:"manufacturer" binding:"omitempty,max=200"`
	DosageForm    *string          `json:"dosage_form" binding:"omitempty,max=50"`
	Unit          *string          `json:"unit" binding:"omitempty,max=20"`
	CostPrice     *decimal.Decimal `json:"cost_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	ReorderPoint  *int             `json:"reorder_point" binding:"omitempty,min=0,max=2147483647"`
	Status        *string          `json:"status" binding:"omitempty,oneof=ACTIVE DISCONTINUED OUT_OF_STOCK EXPIRED"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
	ClearExpiry   bool             `json:"clear_expiry"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	ClearCategory bool             `json:"clear_category"`
	SupplierID    *uuid.UUID       `json:"supplier_id"`
	ClearSupplier bool             `json:"clear_supplier"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search       string `form:"search"`
	Status       string `form:"status" binding:"omitempty,oneof=ACTIVE DISCONTINUED OUT_OF_STOCK EXPIRED"`
	CategoryID   string `form:"category_id" binding:"omitempty,uuid"`
	SupplierID   string `form:"supplier_id" binding:"omitempty,uuid"`
	ExpiryBefore string `form:"expiry_before"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToDomainFilter converts the request filter into a repository filter
func (f ProductListFilter) ToDomainFilter() (catalog.ProductFilter, error) {
	out := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		}.Normalize(),
		Status: catalog.ProductStatus(f.Status),
	}
	if out.Status != "" && !out.Status.IsValid() {
		return out, shared.NewInvalidInputError("Invalid status filter: " + f.Status)
	}
	if f.CategoryID != "" {
		id, err := uuid.Parse(f.CategoryID)
		if err != nil {
			return out, shared.NewInvalidInputError("Invalid category_id")
		}
		out.CategoryID = &id
	}
	if f.SupplierID != "" {
		id, err := uuid.Parse(f.SupplierID)
		if err != nil {
			return out, shared.NewInvalidInputError("Invalid supplier_id")
		}
		out.SupplierID = &id
	}
	if f.ExpiryBefore != "" {
		cutoff, err := ParseDate(f.ExpiryBefore)
		if err != nil {
			return out, err
		}
		out.ExpiryBefore = &cutoff
	}
	return out, nil
}

// ParseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight)
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, shared.NewInvalidInputError("Invalid date: " + value + " (expected YYYY-MM-DD or RFC 3339)")
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Barcode      *string         `json:"barcode"`
	Name         string          `json:"name"`
	GenericName  string          `json:"generic_name"`
	Description  string          `json:"description"`
	Manufacturer string          `json:"manufacturer"`
	DosageForm   string          `json:"dosage_form"`
	Unit         string          `json:"unit"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Quantity     int             `json:"quantity"`
	ReorderPoint int             `json:"reorder_point"`
	Status       string          `json:"status"`
	LowStock     bool            `json:"low_stock"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	CategoryID   *uuid.UUID      `json:"category_id"`
	SupplierID   *uuid.UUID      `json:"supplier_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductDetailResponse is a product with its most recent stock movements
type ProductDetailResponse struct {
	ProductResponse
	RecentMovements []LogEntryResponse `json:"recent_movements,omitempty"`
}

// LogEntryResponse represents one stock movement in API responses
type LogEntryResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	BalanceBefore int       `json:"balance_before"`
	BalanceAfter  int       `json:"balance_after"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Barcode:      p.Barcode,
		Name:         p.Name,
		GenericName:  p.GenericName,
		Description:  p.Description,
		Manufacturer: p.Manufacturer,
		DosageForm:   p.DosageForm,
		Unit:         p.Unit,
		CostPrice:    p.CostPrice,
		SellingPrice: p.SellingPrice,
		Quantity:     p.Quantity,
		ReorderPoint: p.ReorderPoint,
		Status:       string(p.Status),
		LowStock:     p.IsLowStock(),
		ExpiryDate:   p.ExpiryDate,
		CategoryID:   p.CategoryID,
		SupplierID:   p.SupplierID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}

// ToLogEntryResponse converts a domain LogEntry to LogEntryResponse
func ToLogEntryResponse(e *inventory.LogEntry) LogEntryResponse {
	return LogEntryResponse{
		ID:            e.ID,
		ProductID:     e.ProductID,
		Type:          string(e.Type),
		Quantity:      e.Quantity,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Reason:        e.Reason,
		CreatedAt:     e.CreatedAt,
	}
}

// ToLogEntryResponses converts a slice of log entries
func ToLogEntryResponses(entries []inventory.LogEntry) []LogEntryResponse {
	out := make([]LogEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToLogEntryResponse(&entries[i])
	}
	return out
}

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// SupplierRequest creates or updates a supplier
type SupplierRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	ContactName string `json:"contact_name" binding:"max=100"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	Phone       string `json:"phone" binding:"max=50"`
	Address     string `json:"address" binding:"max=2000"`
}

// Details converts the request into domain supplier details
func (r SupplierRequest) Details() partner.SupplierDetails {
	return partner.SupplierDetails{
		Name:        r.Name,
		ContactName: r.ContactName,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
	}
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToSupplierResponse converts a domain Supplier to SupplierResponse
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ListRequest is the pagination/search query shared by category and supplier listings
type ListRequest struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToFilter converts the request to a normalized shared.Filter
func (r ListRequest) ToFilter() shared.Filter {
	return shared.Filter{
		Page:     r.Page,
		PageSize: r.PageSize,
		OrderBy:  r.OrderBy,
		OrderDir: r.OrderDir,
		Search:   r.Search,
	}.Normalize()
}

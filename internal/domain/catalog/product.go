package catalog

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "ACTIVE"
	ProductStatusDiscontinued ProductStatus = "DISCONTINUED"
	ProductStatusOutOfStock   ProductStatus = "OUT_OF_STOCK"
	ProductStatusExpired      ProductStatus = "EXPIRED"
)

// IsValid checks if the status is one of the known values
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusDiscontinued, ProductStatusOutOfStock, ProductStatusExpired:
		return true
	}
	return false
}

// String returns the string representation
func (s ProductStatus) String() string {
	return string(s)
}

// MaxQuantity is the largest stock level or reorder point a product can hold;
// the quantity columns are 32-bit integers.
const MaxQuantity = math.MaxInt32

// DefaultUnit is used when a product is created without a dispensing unit
const DefaultUnit = "unit"

// Product is a stocked pharmacy item.
// Quantity and Status are only changed through the stock ledger (ApplyStock);
// every other setter leaves them alone.
type Product struct {
	shared.BaseEntity
	SKU          string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_products_sku"`
	Barcode      *string         `gorm:"type:varchar(64);uniqueIndex:idx_products_barcode"`
	Name         string          `gorm:"type:varchar(200);not null;index"`
	GenericName  string          `gorm:"type:varchar(200);index"`
	Description  string          `gorm:"type:text"`
	Manufacturer string          `gorm:"type:varchar(200)"`
	DosageForm   string          `gorm:"type:varchar(50)"`
	Unit         string          `gorm:"type:varchar(20);not null;default:'unit'"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity     int             `gorm:"not null;default:0"`
	ReorderPoint int             `gorm:"not null;default:0"`
	Status       ProductStatus   `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	ExpiryDate   *time.Time      `gorm:"index"`
	CategoryID   *uuid.UUID      `gorm:"type:uuid;index"`
	SupplierID   *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product holding an opening quantity.
// A product created with zero quantity starts OUT_OF_STOCK.
func NewProduct(sku, name string, quantity, reorderPoint int) (*Product, error) {
	sku = normalizeSKU(sku)
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, shared.NewInvalidInputError("Quantity cannot be negative")
	}
	if reorderPoint < 0 {
		return nil, shared.NewInvalidInputError("Reorder point cannot be negative")
	}
	if quantity > MaxQuantity || reorderPoint > MaxQuantity {
		return nil, shared.NewInvalidInputError(fmt.Sprintf("Quantity and reorder point cannot exceed %d", MaxQuantity))
	}

	status := ProductStatusActive
	if quantity == 0 {
		status = ProductStatusOutOfStock
	}

	return &Product{
		BaseEntity:   shared.NewBaseEntity(),
		SKU:          sku,
		Name:         strings.TrimSpace(name),
		Unit:         DefaultUnit,
		CostPrice:    decimal.Zero,
		SellingPrice: decimal.Zero,
		Quantity:     quantity,
		ReorderPoint: reorderPoint,
		Status:       status,
	}, nil
}

// ChangeSKU replaces the product SKU
func (p *Product) ChangeSKU(sku string) error {
	sku = normalizeSKU(sku)
	if err := validateSKU(sku); err != nil {
		return err
	}
	p.SKU = sku
	p.Touch()
	return nil
}

// SetBarcode sets the barcode; an empty string clears it
func (p *Product) SetBarcode(barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		p.Barcode = nil
		p.Touch()
		return nil
	}
	if len(barcode) > 64 {
		return shared.NewInvalidInputError("Barcode cannot exceed 64 characters")
	}
	p.Barcode = &barcode
	p.Touch()
	return nil
}

// SetDetails updates the descriptive fields
func (p *Product) SetDetails(name, genericName, description, manufacturer, dosageForm, unit string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = DefaultUnit
	}
	if len(unit) > 20 {
		return shared.NewInvalidInputError("Unit cannot exceed 20 characters")
	}
	p.Name = strings.TrimSpace(name)
	p.GenericName = strings.TrimSpace(genericName)
	p.Description = description
	p.Manufacturer = strings.TrimSpace(manufacturer)
	p.DosageForm = strings.TrimSpace(dosageForm)
	p.Unit = unit
	p.Touch()
	return nil
}

// SetPrices sets cost and selling price
func (p *Product) SetPrices(cost, selling decimal.Decimal) error {
	if cost.IsNegative() || selling.IsNegative() {
		return shared.NewInvalidInputError("Prices cannot be negative")
	}
	p.CostPrice = cost
	p.SellingPrice = selling
	p.Touch()
	return nil
}

// SetReorderPoint sets the low-stock threshold
func (p *Product) SetReorderPoint(reorderPoint int) error {
	if reorderPoint < 0 {
		return shared.NewInvalidInputError("Reorder point cannot be negative")
	}
	if reorderPoint > MaxQuantity {
		return shared.NewInvalidInputError(fmt.Sprintf("Reorder point cannot exceed %d", MaxQuantity))
	}
	p.ReorderPoint = reorderPoint
	p.Touch()
	return nil
}

// SetExpiryDate sets or clears the expiry date
func (p *Product) SetExpiryDate(expiry *time.Time) {
	if expiry != nil {
		utc := expiry.UTC()
		expiry = &utc
	}
	p.ExpiryDate = expiry
	p.Touch()
}

// SetCategory sets the product category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.Touch()
}

// SetSupplier sets the product supplier
func (p *Product) SetSupplier(supplierID *uuid.UUID) {
	p.SupplierID = supplierID
	p.Touch()
}

// ChangeStatus sets the status outside of a stock movement.
// OUT_OF_STOCK and ACTIVE must agree with the current quantity.
func (p *Product) ChangeStatus(status ProductStatus) error {
	if !status.IsValid() {
		return shared.NewInvalidInputError("Invalid product status: " + string(status))
	}
	switch {
	case status == ProductStatusOutOfStock && p.Quantity > 0:
		return shared.NewInvalidInputError("Product with stock on hand cannot be marked OUT_OF_STOCK")
	case status == ProductStatusActive && p.Quantity == 0:
		return shared.NewInvalidInputError("Product without stock cannot be marked ACTIVE")
	}
	p.Status = status
	p.Touch()
	return nil
}

// ApplyStock records the outcome of a ledger computation
func (p *Product) ApplyStock(quantity int, status ProductStatus) {
	p.Quantity = quantity
	p.Status = status
	p.Touch()
}

// IsLowStock returns true when an active product is at or below its reorder point
func (p *Product) IsLowStock() bool {
	return p.Status == ProductStatusActive && p.Quantity <= p.ReorderPoint
}

// IsExpiringWithin returns true when an active product expires in [now, now+window]
func (p *Product) IsExpiringWithin(now time.Time, window time.Duration) bool {
	if p.Status != ProductStatusActive || p.ExpiryDate == nil {
		return false
	}
	return !p.ExpiryDate.Before(now) && !p.ExpiryDate.After(now.Add(window))
}

func normalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewInvalidInputError("SKU cannot be empty")
	}
	if len(sku) > 64 {
		return shared.NewInvalidInputError("SKU cannot exceed 64 characters")
	}
	return nil
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewInvalidInputError("Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewInvalidInputError("Product name cannot exceed 200 characters")
	}
	return nil
}

package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// ProductFilter narrows a product listing. Zero values mean "no constraint".
type ProductFilter struct {
	shared.Filter
	CategoryID   *uuid.UUID
	SupplierID   *uuid.UUID
	Status       ProductStatus
	ExpiryBefore *time.Time
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDForUpdate finds a product and locks its row until the
	// enclosing transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAll finds products matching the filter and the total match count
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)

	// FindLowStock finds active products at or below their reorder point
	FindLowStock(ctx context.Context, filter shared.Filter) ([]Product, int64, error)

	// FindExpiringBetween finds active products expiring in [from, to]
	FindExpiringBetween(ctx context.Context, from, to time.Time, filter shared.Filter) ([]Product, int64, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// Save updates the product's metadata and status columns. Quantity is never
	// written here; the update only applies while the stored quantity still
	// equals product.Quantity and fails with CONCURRENCY_CONFLICT otherwise.
	Save(ctx context.Context, product *Product) error

	// UpdateStock writes quantity, status and updated_at for a product
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int, status ProductStatus, updatedAt time.Time) error

	// Delete deletes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsBySKU checks whether another product already uses the SKU.
	// excludeID may be uuid.Nil.
	ExistsBySKU(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error)

	// ExistsByBarcode checks whether another product already uses the barcode
	ExistsByBarcode(ctx context.Context, barcode string, excludeID uuid.UUID) (bool, error)

	// CountByCategory counts products in a category
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// CountBySupplier counts products from a supplier
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)

	// CountLowStock counts active products at or below their reorder point
	CountLowStock(ctx context.Context) (int64, error)
}

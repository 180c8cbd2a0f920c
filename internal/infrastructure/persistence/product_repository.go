package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, r.notFoundOr(err, id, "find product")
	}
	return &product, nil
}

// FindByIDForUpdate finds a product and takes a row lock (SELECT ... FOR UPDATE)
// that is held until the surrounding transaction commits or rolls back.
// SQLite has no row locks; there the clause is dropped by the dialect.
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, r.notFoundOr(err, id, "lock product")
	}
	return &product, nil
}

// FindAll finds products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	scope := func() *gorm.DB {
		return r.applyFilter(r.db.WithContext(ctx).Model(&catalog.Product{}), filter)
	}
	return r.page(scope, filter.Filter, "created_at DESC")
}

// FindLowStock finds active products at or below their reorder point
func (r *GormProductRepository) FindLowStock(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	scope := func() *gorm.DB {
		return r.lowStock(r.db.WithContext(ctx).Model(&catalog.Product{}))
	}
	return r.page(scope, filter, "quantity ASC, name ASC")
}

// FindExpiringBetween finds active products with an expiry date in [from, to]
func (r *GormProductRepository) FindExpiringBetween(ctx context.Context, from, to time.Time, filter shared.Filter) ([]catalog.Product, int64, error) {
	scope := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&catalog.Product{}).
			Where("status = ?", catalog.ProductStatusActive).
			Where("expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date <= ?", from.UTC(), to.UTC())
	}
	return r.page(scope, filter, "expiry_date ASC, name ASC")
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return translateError(r.db.WithContext(ctx).Create(product).Error, "create product", "Product")
}

// Save writes metadata and status. The quantity column is part of the WHERE
// clause rather than the SET list, so the write is refused when a stock
// movement committed after the product was read.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ? AND quantity = ?", product.ID, product.Quantity).
		Updates(map[string]any{
			"sku":           product.SKU,
			"barcode":       product.Barcode,
			"name":          product.Name,
			"generic_name":  product.GenericName,
			"description":   product.Description,
			"manufacturer":  product.Manufacturer,
			"dosage_form":   product.DosageForm,
			"unit":          product.Unit,
			"cost_price":    product.CostPrice,
			"selling_price": product.SellingPrice,
			"reorder_point": product.ReorderPoint,
			"status":        product.Status,
			"expiry_date":   product.ExpiryDate,
			"category_id":   product.CategoryID,
			"supplier_id":   product.SupplierID,
			"updated_at":    product.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "save product", "Product")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("id = ?", product.ID).Count(&count).Error; err != nil {
		return translateError(err, "save product", "Product")
	}
	if count == 0 {
		return shared.NewNotFoundError("Product", product.ID)
	}
	return shared.NewConflictError("Product stock changed while it was being edited", nil)
}

// UpdateStock writes quantity, status and updated_at. The caller holds the row
// lock, so zero affected rows means the row disappeared underneath the transaction.
func (r *GormProductRepository) UpdateStock(ctx context.Context, id uuid.UUID, quantity int, status catalog.ProductStatus, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":   quantity,
			"status":     status,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "update stock", "Product")
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("Product row changed during stock update", nil)
	}
	return nil
}

// Delete deletes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Product{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "delete product", "Product")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Product", id)
	}
	return nil
}

// ExistsBySKU checks whether another product uses the SKU
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error) {
	return r.exists(ctx, "sku = ?", strings.ToUpper(strings.TrimSpace(sku)), excludeID)
}

// ExistsByBarcode checks whether another product uses the barcode
func (r *GormProductRepository) ExistsByBarcode(ctx context.Context, barcode string, excludeID uuid.UUID) (bool, error) {
	return r.exists(ctx, "barcode = ?", strings.TrimSpace(barcode), excludeID)
}

// CountByCategory counts products in a category
func (r *GormProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	return r.count(r.db.WithContext(ctx).Model(&catalog.Product{}).Where("category_id = ?", categoryID))
}

// CountBySupplier counts products from a supplier
func (r *GormProductRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	return r.count(r.db.WithContext(ctx).Model(&catalog.Product{}).Where("supplier_id = ?", supplierID))
}

// CountLowStock counts active products at or below their reorder point
func (r *GormProductRepository) CountLowStock(ctx context.Context) (int64, error) {
	return r.count(r.lowStock(r.db.WithContext(ctx).Model(&catalog.Product{})))
}

func (r *GormProductRepository) lowStock(query *gorm.DB) *gorm.DB {
	return query.Where("status = ? AND quantity <= reorder_point", catalog.ProductStatusActive)
}

func (r *GormProductRepository) exists(ctx context.Context, cond string, value string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Product{}).Where(cond, value)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	count, err := r.count(query)
	return count > 0, err
}

func (r *GormProductRepository) count(query *gorm.DB) (int64, error) {
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err, "count products", "Product")
	}
	return count, nil
}

// page counts and fetches one page; scope must return a fresh query each call
func (r *GormProductRepository) page(scope func() *gorm.DB, filter shared.Filter, defaultOrder string) ([]catalog.Product, int64, error) {
	total, err := r.count(scope())
	if err != nil {
		return nil, 0, err
	}

	var products []catalog.Product
	if err := paginate(scope(), filter, ProductSortFields, defaultOrder).Find(&products).Error; err != nil {
		return nil, 0, translateError(err, "list products", "Product")
	}
	return products, total, nil
}

// applyFilter applies search and column filters without pagination
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	query = applySearch(query, filter.Search, "name", "generic_name", "sku")

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ExpiryBefore != nil {
		query = query.Where("expiry_date IS NOT NULL AND expiry_date < ?", filter.ExpiryBefore.UTC())
	}
	return query
}

func (r *GormProductRepository) notFoundOr(err error, id uuid.UUID, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError("Product", id)
	}
	return translateError(err, op, "Product")
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/partner"
	"github.com/pharmacy/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSupplierRepository implements SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var supplier partner.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Supplier", id)
		}
		return nil, translateError(err, "find supplier", "Supplier")
	}
	return &supplier, nil
}

// FindAll finds suppliers, searching by name, contact and email
func (r *GormSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, int64, error) {
	scope := func() *gorm.DB {
		return applySearch(r.db.WithContext(ctx).Model(&partner.Supplier{}), filter.Search, "name", "contact_name", "email")
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count suppliers", "Supplier")
	}

	var suppliers []partner.Supplier
	if err := paginate(scope(), filter, SupplierSortFields, "name ASC").Find(&suppliers).Error; err != nil {
		return nil, 0, translateError(err, "list suppliers", "Supplier")
	}
	return suppliers, total, nil
}

// Create inserts a new supplier
func (r *GormSupplierRepository) Create(ctx context.Context, supplier *partner.Supplier) error {
	return translateError(r.db.WithContext(ctx).Create(supplier).Error, "create supplier", "Supplier")
}

// Save updates an existing supplier
func (r *GormSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	result := r.db.WithContext(ctx).
		Model(&partner.Supplier{}).
		Where("id = ?", supplier.ID).
		Updates(map[string]any{
			"name":         supplier.Name,
			"contact_name": supplier.ContactName,
			"email":        supplier.Email,
			"phone":        supplier.Phone,
			"address":      supplier.Address,
			"updated_at":   supplier.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "save supplier", "Supplier")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Supplier", supplier.ID)
	}
	return nil
}

// Delete deletes a supplier
func (r *GormSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&partner.Supplier{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "delete supplier", "Supplier")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Supplier", id)
	}
	return nil
}

// ExistsByName checks whether another supplier uses the name, ignoring case
func (r *GormSupplierRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&partner.Supplier{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err, "check supplier name", "Supplier")
	}
	return count > 0, nil
}

// Ensure GormSupplierRepository implements SupplierRepository
var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var category catalog.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Category", id)
		}
		return nil, translateError(err, "find category", "Category")
	}
	return &category, nil
}

// FindAll finds categories, searching by name
func (r *GormCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, int64, error) {
	scope := func() *gorm.DB {
		return applySearch(r.db.WithContext(ctx).Model(&catalog.Category{}), filter.Search, "name")
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count categories", "Category")
	}

	var categories []catalog.Category
	if err := paginate(scope(), filter, CategorySortFields, "name ASC").Find(&categories).Error; err != nil {
		return nil, 0, translateError(err, "list categories", "Category")
	}
	return categories, total, nil
}

// Create inserts a new category
func (r *GormCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	return translateError(r.db.WithContext(ctx).Create(category).Error, "create category", "Category")
}

// Save updates an existing category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	result := r.db.WithContext(ctx).
		Model(&catalog.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":        category.Name,
			"description": category.Description,
			"updated_at":  category.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "save category", "Category")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Category", category.ID)
	}
	return nil
}

// Delete deletes a category
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Category{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "delete category", "Category")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Category", id)
	}
	return nil
}

// ExistsByName checks whether another category uses the name, ignoring case
func (r *GormCategoryRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Category{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err, "check category name", "Category")
	}
	return count > 0, nil
}

// Ensure GormCategoryRepository implements CategoryRepository
var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)

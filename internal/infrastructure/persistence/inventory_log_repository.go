package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormLogRepository implements the append-only LogRepository using GORM
type GormLogRepository struct {
	db *gorm.DB
}

// NewGormLogRepository creates a new GormLogRepository
func NewGormLogRepository(db *gorm.DB) *GormLogRepository {
	return &GormLogRepository{db: db}
}

// Append inserts a log entry
func (r *GormLogRepository) Append(ctx context.Context, entry *inventory.LogEntry) error {
	return translateError(r.db.WithContext(ctx).Create(entry).Error, "append log entry", "Inventory log entry")
}

// ListByProduct lists up to limit entries for a product in creation order
func (r *GormLogRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int, mostRecentFirst bool) ([]inventory.LogEntry, error) {
	order := "created_at ASC, id ASC"
	if mostRecentFirst {
		order = "created_at DESC, id DESC"
	}

	query := r.db.WithContext(ctx).Where("product_id = ?", productID).Order(order)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []inventory.LogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, translateError(err, "list log entries", "Inventory log entry")
	}
	return entries, nil
}

// ListByProductPaged returns one page of a product's entries, newest first
func (r *GormLogRepository) ListByProductPaged(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.LogEntry, int64, error) {
	total, err := r.CountByProduct(ctx, productID)
	if err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC, id DESC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var entries []inventory.LogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, translateError(err, "list log entries", "Inventory log entry")
	}
	return entries, total, nil
}

// CountByProduct counts the entries for a product
func (r *GormLogRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&inventory.LogEntry{}).Where("product_id = ?", productID).Count(&count).Error
	if err != nil {
		return 0, translateError(err, "count log entries", "Inventory log entry")
	}
	return count, nil
}

// DeleteByProduct removes every entry of a product and reports how many were removed
func (r *GormLogRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&inventory.LogEntry{})
	if result.Error != nil {
		return 0, translateError(result.Error, "delete log entries", "Inventory log entry")
	}
	return result.RowsAffected, nil
}

// Ensure GormLogRepository implements LogRepository
var _ inventory.LogRepository = (*GormLogRepository)(nil)

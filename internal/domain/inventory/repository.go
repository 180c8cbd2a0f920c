package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// LogRepository is the append-only store of stock movements.
// It exposes no update and no single-entry delete.
type LogRepository interface {
	// Append stores a new entry
	Append(ctx context.Context, entry *LogEntry) error

	// ListByProduct returns up to limit entries for a product, ordered by
	// creation time. limit <= 0 means no limit.
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int, mostRecentFirst bool) ([]LogEntry, error)

	// ListByProductPaged returns one page of a product's entries, newest first,
	// with the total count
	ListByProductPaged(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]LogEntry, int64, error)

	// CountByProduct counts the entries for a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// DeleteByProduct removes every entry for a product. It exists only for
	// the product deletion cascade.
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

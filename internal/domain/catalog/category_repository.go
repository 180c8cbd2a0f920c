package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Category, int64, error)
	Create(ctx context.Context, category *Category) error
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ExistsByName checks whether another category already uses the name (case-insensitive)
	ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
}

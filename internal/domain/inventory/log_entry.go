package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// InitialStockReason is the reason recorded for the opening PURCHASE of a new product
const InitialStockReason = "Initial stock"

// MaxReasonLength bounds the free-text reason
const MaxReasonLength = 500

// LogEntry is an immutable record of one accepted stock movement.
// Quantity is always positive; the direction of the change comes from Type.
type LogEntry struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ProductID     uuid.UUID    `gorm:"type:uuid;not null;index:idx_inventory_log_product_time,priority:1"`
	Type          MovementType `gorm:"type:varchar(20);not null;index"`
	Quantity      int          `gorm:"not null"`
	BalanceBefore int          `gorm:"not null"`
	BalanceAfter  int          `gorm:"not null"`
	Reason        string       `gorm:"type:text"`
	CreatedAt     time.Time    `gorm:"not null;index:idx_inventory_log_product_time,priority:2"`
}

// TableName returns the table name for GORM
func (LogEntry) TableName() string {
	return "inventory_log_entries"
}

// NewLogEntry creates a log entry for a movement that moved the product from
// balanceBefore to balanceAfter
func NewLogEntry(
	productID uuid.UUID,
	movementType MovementType,
	quantity int,
	balanceBefore, balanceAfter int,
	reason string,
) (*LogEntry, error) {
	if productID == uuid.Nil {
		return nil, shared.NewInvalidInputError("Product ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewInvalidInputError("Invalid movement type: " + string(movementType))
	}
	if quantity <= 0 {
		return nil, shared.NewInvalidInputError("Quantity must be positive")
	}
	if balanceAfter-balanceBefore != movementType.SignedQuantity(quantity) {
		return nil, shared.NewInvalidInputError("Balance change does not match movement")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxReasonLength {
		return nil, shared.NewInvalidInputError("Reason cannot exceed 500 characters")
	}

	return &LogEntry{
		ID:            uuid.New(),
		ProductID:     productID,
		Type:          movementType,
		Quantity:      quantity,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// SignedQuantity returns the quantity with the sign of its effect on stock
func (e *LogEntry) SignedQuantity() int {
	return e.Type.SignedQuantity(e.Quantity)
}

package inventory

import (
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/inventory"
)

// AdjustStockRequest is the body of a stock movement request
type AdjustStockRequest struct {
	Type     string `json:"type" binding:"required,movement_type"`
	Quantity int    `json:"quantity" binding:"required,gt=0,max=2147483647"`
	Reason   string `json:"reason" binding:"max=500"`
}

// AdjustStockCommand is a fully resolved stock movement
type AdjustStockCommand struct {
	ProductID      uuid.UUID
	Type           inventory.MovementType
	Quantity       int
	Reason         string
	IdempotencyKey string
}

// ToCommand builds the command for a product from the request
func (r AdjustStockRequest) ToCommand(productID uuid.UUID, idempotencyKey string) AdjustStockCommand {
	return AdjustStockCommand{
		ProductID:      productID,
		Type:           inventory.MovementType(r.Type),
		Quantity:       r.Quantity,
		Reason:         r.Reason,
		IdempotencyKey: idempotencyKey,
	}
}

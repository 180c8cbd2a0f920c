package inventory

import (
	"fmt"

	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// ApplyMovement computes the quantity and status that result from applying a
// movement to a product holding currentQuantity units.
//
// PURCHASE and RETURN add movementQuantity; SALE, ADJUSTMENT, EXPIRED and
// DAMAGED subtract it. A subtraction that would go below zero fails with an
// INSUFFICIENT_STOCK error and no result. Inputs above catalog.MaxQuantity,
// and additions whose result would exceed it, fail with INVALID_INPUT.
//
// The returned status is OUT_OF_STOCK when the new quantity is zero and ACTIVE
// otherwise, regardless of the product's previous status. A DISCONTINUED or
// EXPIRED product that receives any movement therefore becomes ACTIVE or
// OUT_OF_STOCK again. This is a known limitation: callers that need to keep
// those statuses must re-apply them after the movement.
func ApplyMovement(currentQuantity int, movementType MovementType, movementQuantity int) (int, catalog.ProductStatus, error) {
	if !movementType.IsValid() {
		return 0, "", shared.NewInvalidInputError(fmt.Sprintf("Invalid movement type: %q", movementType))
	}
	if movementQuantity <= 0 {
		return 0, "", shared.NewInvalidInputError("Movement quantity must be positive")
	}
	if currentQuantity < 0 {
		return 0, "", shared.NewInvalidInputError("Current quantity cannot be negative")
	}
	if movementQuantity > catalog.MaxQuantity || currentQuantity > catalog.MaxQuantity {
		return 0, "", shared.NewInvalidInputError(fmt.Sprintf("Quantity cannot exceed %d", catalog.MaxQuantity))
	}
	if movementType.IsIncrease() && currentQuantity > catalog.MaxQuantity-movementQuantity {
		return 0, "", shared.NewInvalidInputError(
			fmt.Sprintf("Stock level would exceed %d (current %d, adding %d)", catalog.MaxQuantity, currentQuantity, movementQuantity))
	}

	newQuantity := currentQuantity + movementType.SignedQuantity(movementQuantity)
	if newQuantity < 0 {
		return 0, "", shared.NewInsufficientStockError(currentQuantity, movementQuantity)
	}

	return newQuantity, DeriveStatus(newQuantity), nil
}

// DeriveStatus returns the status a product takes after a stock movement
func DeriveStatus(quantity int) catalog.ProductStatus {
	if quantity == 0 {
		return catalog.ProductStatusOutOfStock
	}
	return catalog.ProductStatusActive
}

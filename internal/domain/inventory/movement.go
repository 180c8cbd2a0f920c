package inventory

// MovementType represents the kind of stock movement recorded in the ledger
type MovementType string

const (
	// MovementTypePurchase represents stock received from a supplier
	MovementTypePurchase MovementType = "PURCHASE"
	// MovementTypeSale represents stock dispensed or sold
	MovementTypeSale MovementType = "SALE"
	// MovementTypeAdjustment represents a manual downward correction (e.g. stock count)
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	// MovementTypeReturn represents stock returned by a customer
	MovementTypeReturn MovementType = "RETURN"
	// MovementTypeExpired represents an expiry write-off
	MovementTypeExpired MovementType = "EXPIRED"
	// MovementTypeDamaged represents a damage write-off
	MovementTypeDamaged MovementType = "DAMAGED"
)

// AllMovementTypes lists every movement type in display order
var AllMovementTypes = []MovementType{
	MovementTypePurchase,
	MovementTypeSale,
	MovementTypeAdjustment,
	MovementTypeReturn,
	MovementTypeExpired,
	MovementTypeDamaged,
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	return t.IsIncrease() || t.IsDecrease()
}

// IsIncrease returns true if this movement type adds to the quantity on hand
func (t MovementType) IsIncrease() bool {
	switch t {
	case MovementTypePurchase, MovementTypeReturn:
		return true
	}
	return false
}

// IsDecrease returns true if this movement type removes from the quantity on hand
func (t MovementType) IsDecrease() bool {
	switch t {
	case MovementTypeSale, MovementTypeAdjustment, MovementTypeExpired, MovementTypeDamaged:
		return true
	}
	return false
}

// SignedQuantity returns the quantity with the sign of its effect on stock
func (t MovementType) SignedQuantity(quantity int) int {
	if t.IsDecrease() {
		return -quantity
	}
	return quantity
}

package partner

import (
	"net/mail"
	"strings"

	"github.com/pharmacy/backend/internal/domain/shared"
)

// Supplier is a wholesaler or manufacturer the pharmacy purchases stock from
type Supplier struct {
	shared.BaseEntity
	Name        string `gorm:"type:varchar(200);not null;uniqueIndex:idx_suppliers_name"`
	ContactName string `gorm:"type:varchar(100)"`
	Email       string `gorm:"type:varchar(200);index"`
	Phone       string `gorm:"type:varchar(50)"`
	Address     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// SupplierDetails carries the mutable supplier fields
type SupplierDetails struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
}

// NewSupplier creates a new supplier
func NewSupplier(details SupplierDetails) (*Supplier, error) {
	s := &Supplier{BaseEntity: shared.NewBaseEntity()}
	if err := s.Update(details); err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the supplier's details
func (s *Supplier) Update(details SupplierDetails) error {
	name := strings.TrimSpace(details.Name)
	if name == "" {
		return shared.NewInvalidInputError("Supplier name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewInvalidInputError("Supplier name cannot exceed 200 characters")
	}
	email := strings.TrimSpace(details.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewInvalidInputError("Invalid supplier email: " + email)
		}
	}

	s.Name = name
	s.ContactName = strings.TrimSpace(details.ContactName)
	s.Email = email
	s.Phone = strings.TrimSpace(details.Phone)
	s.Address = details.Address
	s.Touch()
	return nil
}

package catalog

import (
	"strings"

	"github.com/pharmacy/backend/internal/domain/shared"
)

// Category groups products for browsing and filtering (e.g. "Antibiotics")
type Category struct {
	shared.BaseEntity
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_name"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category
func NewCategory(name, description string) (*Category, error) {
	c := &Category{BaseEntity: shared.NewBaseEntity()}
	if err := c.Update(name, description); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the category's name and description
func (c *Category) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewInvalidInputError("Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewInvalidInputError("Category name cannot exceed 100 characters")
	}
	c.Name = name
	c.Description = description
	c.Touch()
	return nil
}

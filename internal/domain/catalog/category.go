package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
)

const maxCategoryNameLength = 100

// Category groups products in the storefront
type Category struct {
	shared.BaseEntity
	Name string
}

// NewCategory creates a new category
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
	}, nil
}

// Rename changes the category's name
func (c *Category) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return err
	}
	c.Name = name
	c.Touch()
	return nil
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("CATEGORY_NAME_REQUIRED", "Category name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLength {
		return shared.NewDomainError("CATEGORY_NAME_TOO_LONG", "Category name cannot exceed 100 characters")
	}
	return nil
}

package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxProductNameLength = 200

// Product is an item that can be put into the cart
type Product struct {
	shared.BaseEntity
	Name        string
	Price       decimal.Decimal
	Description string
	Image       string // uploaded object path, absolute URL, or empty
	CategoryID  *uuid.UUID
}

// ProductInput carries the editable fields of a product
type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Description string
	Image       string
	CategoryID  *uuid.UUID
}

// NewProduct creates a new product
func NewProduct(in ProductInput) (*Product, error) {
	p := &Product{BaseEntity: shared.NewBaseEntity()}
	if err := p.apply(in); err != nil {
		return nil, err
	}
	p.Image = strings.TrimSpace(in.Image)
	return p, nil
}

// Update replaces the product's fields. The image is only replaced when
// in.Image is non-empty.
func (p *Product) Update(in ProductInput) error {
	if err := p.apply(in); err != nil {
		return err
	}
	p.ReplaceImage(in.Image)
	p.Touch()
	return nil
}

// ReplaceImage sets a new image if one is given
func (p *Product) ReplaceImage(image string) {
	image = strings.TrimSpace(image)
	if image == "" {
		return
	}
	p.Image = image
}

// HasExternalImage reports whether the image is an absolute URL rather
// than an uploaded object.
func (p *Product) HasExternalImage() bool {
	return strings.HasPrefix(p.Image, "http://") || strings.HasPrefix(p.Image, "https://")
}

func (p *Product) apply(in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewDomainError("PRODUCT_NAME_REQUIRED", "Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxProductNameLength {
		return shared.NewDomainError("PRODUCT_NAME_TOO_LONG", "Product name cannot exceed 200 characters")
	}
	if in.Price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	p.Name = name
	p.Price = in.Price.Round(2)
	p.Description = strings.TrimSpace(in.Description)
	p.CategoryID = in.CategoryID
	return nil
}

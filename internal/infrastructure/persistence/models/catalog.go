package models

import (
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// CategoryModel is the persistence model for catalog.Category
type CategoryModel struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_name"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
	}
}

// FromDomain populates the model from a domain Category
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
}

// ProductModel is the persistence model for catalog.Product
type ProductModel struct {
	BaseModel
	Name        string          `gorm:"type:varchar(200);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Description string          `gorm:"type:text"`
	Image       string          `gorm:"type:varchar(500)"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	// SearchText is name and description case-folded in Go, so search
	// does not depend on the database's idea of lower case.
	SearchText string `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		Image:       m.Image,
		CategoryID:  m.CategoryID,
	}
}

// FromDomain populates the model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Name = p.Name
	m.Price = p.Price
	m.Description = p.Description
	m.Image = p.Image
	m.CategoryID = p.CategoryID
	m.SearchText = ProductSearchText(p.Name, p.Description)
}

// ProductSearchText builds the folded text Search matches against
func ProductSearchText(name, description string) string {
	return FoldSearch(name + "\n" + description)
}

// FoldSearch case-folds s for comparisons. Queries and stored search text
// must go through the same folding.
func FoldSearch(s string) string {
	return cases.Fold().String(s)
}

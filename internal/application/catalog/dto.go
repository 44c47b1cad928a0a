package catalog

import (
	"html/template"
	"io"
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryResponse represents a category on admin pages and product forms
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductResponse represents a product on catalog, product and admin pages
type ProductResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Description     string          `json:"description"`
	DescriptionHTML template.HTML   `json:"-"`
	Excerpt         string          `json:"excerpt,omitempty"`
	Image           string          `json:"image"`
	CategoryID      *uuid.UUID      `json:"category_id"`
	CategoryName    string          `json:"category_name,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProductRequest is the admin product form. Price and CategoryID are the
// raw form values. Upload, when set, takes precedence over ImageURL.
type ProductRequest struct {
	Name        string
	Price       string
	Description string
	ImageURL    string
	CategoryID  string
	Upload      io.Reader
}

// DashboardStats are the counters on the admin start page
type DashboardStats struct {
	Products   int64 `json:"products"`
	Categories int64 `json:"categories"`
	Orders     int64 `json:"orders"`
}

// ToCategoryResponse converts a domain Category
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}

// ToCategoryResponses converts a slice of categories
func ToCategoryResponses(categories []catalog.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(categories))
	for i := range categories {
		out[i] = ToCategoryResponse(&categories[i])
	}
	return out
}

// ToProductResponse converts a domain Product without rendered fields
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Image:       p.Image,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
	}
}

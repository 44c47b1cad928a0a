package order

import (
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemResponse is one order line
type ItemResponse struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse represents an order on account and admin pages
type OrderResponse struct {
	ID           uuid.UUID       `json:"id"`
	Number       int             `json:"number"`
	UserID       *uuid.UUID      `json:"user_id"`
	CustomerName string          `json:"customer_name"`
	Email        string          `json:"email"`
	Address      string          `json:"address"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	ItemCount    int             `json:"item_count"`
	Items        []ItemResponse  `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IsGuest reports whether the order was placed without an account
func (o OrderResponse) IsGuest() bool {
	return o.UserID == nil
}

// ToOrderResponse converts a domain Order
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = ItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.PriceSnapshot,
			LineTotal:   it.LineTotal().Round(2),
		}
	}
	return OrderResponse{
		ID:           o.ID,
		Number:       o.UserOrderNo,
		UserID:       o.UserID,
		CustomerName: o.CustomerName,
		Email:        o.Email,
		Address:      o.Address,
		Status:       o.Status.String(),
		Total:        o.Total(),
		ItemCount:    o.ItemCount(),
		Items:        items,
		CreatedAt:    o.CreatedAt,
	}
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}

// ToOrderPage converts a page of orders
func ToOrderPage(p shared.Paginated[order.Order]) shared.Paginated[OrderResponse] {
	return shared.Paginated[OrderResponse]{
		Items:      ToOrderResponses(p.Items),
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}

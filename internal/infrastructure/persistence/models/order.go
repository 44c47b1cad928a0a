package models

import (
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for order.Order
type OrderModel struct {
	BaseModel
	UserID          *uuid.UUID       `gorm:"type:uuid;index"`
	CustomerName    string           `gorm:"type:varchar(200);not null"`
	Email           string           `gorm:"type:varchar(255);not null;index"`
	Address         string           `gorm:"type:text;not null"`
	Status          string           `gorm:"type:varchar(32);not null;default:'new';index"`
	UserOrderNo     int              `gorm:"not null;default:0"`
	StripeSessionID string           `gorm:"type:varchar(255);index"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model, including loaded items, to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseEntity:      m.BaseModel.ToDomain(),
		UserID:          m.UserID,
		CustomerName:    m.CustomerName,
		Email:           m.Email,
		Address:         m.Address,
		Status:          order.Status(m.Status),
		UserOrderNo:     m.UserOrderNo,
		StripeSessionID: m.StripeSessionID,
		Items:           make([]order.Item, 0, len(m.Items)),
	}
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// FromDomain populates the model, including items, from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.UserID = o.UserID
	m.CustomerName = o.CustomerName
	m.Email = o.Email
	m.Address = o.Address
	m.Status = string(o.Status)
	m.UserOrderNo = o.UserOrderNo
	m.StripeSessionID = o.StripeSessionID
	m.Items = make([]OrderItemModel, 0, len(o.Items))
	for _, it := range o.Items {
		var im OrderItemModel
		im.FromDomain(o.ID, it)
		m.Items = append(m.Items, im)
	}
}

// OrderItemModel is the persistence model for order.Item
type OrderItemModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     *uuid.UUID      `gorm:"type:uuid;index"`
	ProductName   string          `gorm:"type:varchar(200);not null"`
	Quantity      int             `gorm:"not null"`
	PriceSnapshot decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the model to a domain Item
func (m *OrderItemModel) ToDomain() order.Item {
	return order.Item{
		ID:            m.ID,
		ProductID:     m.ProductID,
		ProductName:   m.ProductName,
		Quantity:      m.Quantity,
		PriceSnapshot: m.PriceSnapshot,
	}
}

// FromDomain populates the model from a domain Item
func (m *OrderItemModel) FromDomain(orderID uuid.UUID, it order.Item) {
	m.ID = it.ID
	m.OrderID = orderID
	m.ProductID = it.ProductID
	m.ProductName = it.ProductName
	m.Quantity = it.Quantity
	m.PriceSnapshot = it.PriceSnapshot
}

package order

import (
	"strings"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order
type Status string

const (
	StatusNew             Status = "new"
	StatusPending         Status = "pending" // payment is being processed by the gateway
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusCanceled        Status = "canceled"
)

// Errors returned by order operations
var (
	ErrInvalidStatus  = shared.NewDomainError("INVALID_STATUS", "Invalid order status")
	ErrEmptyOrder     = shared.NewDomainError("EMPTY_CART", "Cart is empty")
	ErrMissingDetails = shared.NewDomainError("CHECKOUT_FIELDS_REQUIRED", "Name, email and address are required")
)

// AllStatuses lists statuses in the order they are offered to admins
func AllStatuses() []Status {
	return []Status{StatusNew, StatusPending, StatusAwaitingPayment, StatusPaid, StatusCanceled}
}

// ParseStatus converts a status code into a Status
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	for _, known := range AllStatuses() {
		if st == known {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// String returns the status code
func (s Status) String() string {
	return string(s)
}

// Customer holds the contact details entered at checkout
type Customer struct {
	Name    string
	Email   string
	Address string
}

func (c Customer) normalized() Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Address: strings.TrimSpace(c.Address),
	}
}

// Item is one order line. Price and name are snapshotted so later
// catalog edits don't change past orders.
type Item struct {
	ID            uuid.UUID
	ProductID     *uuid.UUID
	ProductName   string
	Quantity      int
	PriceSnapshot decimal.Decimal
}

// LineTotal returns price × quantity
func (i Item) LineTotal() decimal.Decimal {
	return i.PriceSnapshot.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a placed checkout
type Order struct {
	shared.BaseEntity
	UserID          *uuid.UUID
	CustomerName    string
	Email           string
	Address         string
	Status          Status
	UserOrderNo     int
	StripeSessionID string
	Items           []Item
}

// New creates an order in the pending state. userID is nil for guest
// checkouts.
func New(userID *uuid.UUID, customer Customer, items []Item) (*Order, error) {
	customer = customer.normalized()
	if customer.Name == "" || customer.Email == "" || customer.Address == "" {
		return nil, ErrMissingDetails
	}
	lines := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		lines = append(lines, it)
	}
	o := &Order{
		BaseEntity:   shared.NewBaseEntity(),
		UserID:       userID,
		CustomerName: customer.Name,
		Email:        customer.Email,
		Address:      customer.Address,
		Status:       StatusPending,
		Items:        lines,
	}
	if !o.Total().IsPositive() {
		return nil, ErrEmptyOrder
	}
	return o, nil
}

// Total returns the order sum rounded to cents
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

// ItemCount returns the number of units ordered
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// IsGuest reports whether the order was placed without an account
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// SetStatus moves the order to s unconditionally. Admins use it to fix
// up orders by hand.
func (o *Order) SetStatus(s Status) {
	o.Status = s
	o.Touch()
}

// MarkPaid records a successful payment. It reports whether the status
// changed.
func (o *Order) MarkPaid() bool {
	if o.Status == StatusPaid {
		return false
	}
	o.SetStatus(StatusPaid)
	return true
}

// MarkPaymentCanceled records an abandoned payment. Paid orders are left
// alone.
func (o *Order) MarkPaymentCanceled() bool {
	if o.Status == StatusPaid || o.Status == StatusCanceled {
		return false
	}
	o.SetStatus(StatusCanceled)
	return true
}

// AwaitOfflinePayment is used when no payment gateway is available
func (o *Order) AwaitOfflinePayment() {
	o.SetStatus(StatusAwaitingPayment)
}

// AttachPaymentSession stores the gateway's checkout session id
func (o *Order) AttachPaymentSession(id string) {
	o.StripeSessionID = id
	o.Touch()
}

// Viewer identifies who is looking at an order
type Viewer struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

// VisibleTo reports whether v may see the order: its owner, the guest
// who placed it with the same email, or an admin.
func (o *Order) VisibleTo(v Viewer) bool {
	if v.IsAdmin {
		return true
	}
	if o.UserID != nil {
		return *o.UserID == v.UserID
	}
	return v.Email != "" && strings.EqualFold(o.Email, v.Email)
}

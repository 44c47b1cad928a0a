package order

import (
	"context"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for order persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByPaymentSession(ctx context.Context, sessionID string) (*Order, error)
	// FindByUser returns the user's orders, newest first
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	// FindByEmail returns orders placed with email, newest first
	FindByEmail(ctx context.Context, email string) ([]Order, error)
	// FindAll returns a page of orders, newest first
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[Order], error)
	// Create inserts the order and its items in one transaction and
	// assigns UserOrderNo: max+1 over the same user's orders, or over
	// guest orders with the same email when UserID is nil.
	Create(ctx context.Context, o *Order) error
	// Update persists status and payment session changes
	Update(ctx context.Context, o *Order) error
	Count(ctx context.Context) (int64, error)
}

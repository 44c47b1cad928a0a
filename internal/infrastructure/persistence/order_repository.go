package persistence

import (
	"context"
	"errors"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_name ASC")
	})
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.withItems(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Order not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPaymentSession finds the order a checkout session was created for
func (r *GormOrderRepository) FindByPaymentSession(ctx context.Context, sessionID string) (*order.Order, error) {
	if sessionID == "" {
		return nil, shared.ErrNotFound.WithMessage("Order not found")
	}
	var model models.OrderModel
	if err := r.withItems(ctx).Where("stripe_session_id = ?", sessionID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Order not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser returns the user's orders, newest first
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	var rows []models.OrderModel
	if err := r.withItems(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// FindByEmail returns orders placed with the email, newest first
func (r *GormOrderRepository) FindByEmail(ctx context.Context, email string) ([]order.Order, error) {
	var rows []models.OrderModel
	if err := r.withItems(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// FindAll returns a page of orders, newest first
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[order.Order], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Count(&total).Error; err != nil {
		return shared.Paginated[order.Order]{}, err
	}

	var rows []models.OrderModel
	if err := r.withItems(ctx).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return shared.Paginated[order.Order]{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	return shared.NewPaginated(toOrders(rows), total, page, filter.Limit()), nil
}

// Create inserts the order with its items and assigns the per-customer
// order number inside the same transaction
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.OrderModel{}).Select("COALESCE(MAX(user_order_no), 0)")
		if o.UserID != nil {
			q = q.Where("user_id = ?", *o.UserID)
		} else {
			q = q.Where("user_id IS NULL AND email = ?", o.Email)
		}
		var last int
		if err := q.Scan(&last).Error; err != nil {
			return err
		}
		o.UserOrderNo = last + 1

		var model models.OrderModel
		model.FromDomain(o)
		return tx.Create(&model).Error
	})
}

// Update persists status and payment session changes. Items are
// immutable once placed.
func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{
			"status":            string(o.Status),
			"stripe_session_id": o.StripeSessionID,
			"updated_at":        o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithMessage("Order not found")
	}
	return nil
}

// Count returns the number of orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Count(&count).Error
	return count, err
}

func toOrders(rows []models.OrderModel) []order.Order {
	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

var _ order.Repository = (*GormOrderRepository)(nil)

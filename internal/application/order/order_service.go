// Package order implements the customer order history and order
// administration.
package order

import (
	"context"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service reads orders for customers and lets admins change their status
type Service struct {
	orderRepo order.Repository
	logger    *zap.Logger
}

// NewService creates a new order Service
func NewService(orderRepo order.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{orderRepo: orderRepo, logger: logger}
}

// AccountOrders returns the viewer's orders newest first. When none are
// linked to the account, orders placed with the account's email are shown.
func (s *Service) AccountOrders(ctx context.Context, viewer order.Viewer) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindByUser(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 && viewer.Email != "" {
		if orders, err = s.orderRepo.FindByEmail(ctx, viewer.Email); err != nil {
			return nil, err
		}
	}
	return ToOrderResponses(orders), nil
}

// AccountOrder returns one order if the viewer may see it
func (s *Service) AccountOrder(ctx context.Context, viewer order.Viewer, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.VisibleTo(viewer) {
		logger.For(ctx, s.logger).Warn("Order access denied",
			zap.String("order_id", id.String()),
			zap.String("viewer_id", viewer.UserID.String()))
		return nil, shared.ErrForbidden
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// List returns a page of all orders for admins, newest first
func (s *Service) List(ctx context.Context, filter shared.Filter) (shared.Paginated[OrderResponse], error) {
	page, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	return ToOrderPage(page), nil
}

// ChangeStatus sets an order's status by code. A missing order is reported
// before an unknown code.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, code string) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "ChangeStatus",
		telemetry.SpanAttrOrderID, id.String(),
		telemetry.SpanAttrOrderStatus, code)
	defer span.End()

	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	status, err := order.ParseStatus(code)
	if err != nil {
		return nil, err
	}
	previous := o.Status
	o.SetStatus(status)
	if err := s.orderRepo.Update(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.For(ctx, s.logger).Info("Order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", previous.String()),
		zap.String("to", status.String()))
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Count returns the number of orders
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.orderRepo.Count(ctx)
}

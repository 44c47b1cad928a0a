// Package checkout turns a cart into an order and follows its payment.
package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	orderapp "github.com/EthanMadison/hack-yourself.shop/internal/application/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/cart"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/payment"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const webhookEventTTL = 72 * time.Hour

// ErrPaymentsDisabled is returned by payment callbacks when no gateway is configured
var ErrPaymentsDisabled = shared.NewDomainError("PAYMENTS_DISABLED", "Online payments are not configured")

// PaymentGateway opens hosted checkout pages and verifies their callbacks
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*payment.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*payment.Event, error)
}

// Buyer is the signed-in customer, if any
type Buyer struct {
	UserID         uuid.UUID
	FullName       string
	Email          string
	DefaultAddress string
}

// Form is the checkout form
type Form struct {
	Name    string
	Email   string
	Address string
}

// PlaceResult tells the caller where to send the customer next. Exactly
// one of RedirectURL (hosted payment page) or a thank-you page for Order
// applies.
type PlaceResult struct {
	Order              orderapp.OrderResponse
	RedirectURL        string
	PaymentUnavailable bool // a gateway is configured but refused the session
}

// Config contains configuration for the checkout service
type Config struct {
	BaseURL string // absolute URL prefix of payment return URLs
}

// Service places orders and records payment outcomes
type Service struct {
	productRepo catalog.ProductRepository
	orderRepo   order.Repository
	gateway     PaymentGateway
	events      shared.IdempotencyStore
	metrics     *telemetry.Metrics
	config      Config
	logger      *zap.Logger
}

// NewService creates a checkout service. gateway may be nil, in which
// case every order waits for an offline payment.
func NewService(
	productRepo catalog.ProductRepository,
	orderRepo order.Repository,
	gateway PaymentGateway,
	events shared.IdempotencyStore,
	metrics *telemetry.Metrics,
	config Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Service{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
		events:      events,
		metrics:     metrics,
		config:      config,
		logger:      logger,
	}
}

// PaymentsEnabled reports whether orders are paid online
func (s *Service) PaymentsEnabled() bool {
	return s.gateway != nil
}

// Prefill returns the form defaults for buyer. Guests get an empty form.
func (s *Service) Prefill(buyer *Buyer) Form {
	if buyer == nil {
		return Form{}
	}
	return Form{Name: buyer.FullName, Email: buyer.Email, Address: buyer.DefaultAddress}
}

// PlaceOrder creates an order from the cart. With a payment gateway the
// customer is sent to a hosted checkout page; without one, or when the
// gateway fails, the order waits for an offline payment. The cart is
// emptied once the order exists.
func (s *Service) PlaceOrder(ctx context.Context, c *cart.Cart, form Form, buyer *Buyer) (*PlaceResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "PlaceOrder")
	defer span.End()

	form = normalizeForm(form)
	if form.Address == "" && buyer != nil {
		form.Address = strings.TrimSpace(buyer.DefaultAddress)
	}
	if form.Name == "" || form.Email == "" || form.Address == "" {
		return nil, order.ErrMissingDetails
	}

	lines, err := s.lines(ctx, c)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	items := make([]order.Item, 0, len(lines))
	for _, l := range lines {
		pid := l.Product.ID
		items = append(items, order.Item{
			ProductID:     &pid,
			ProductName:   l.Product.Name,
			Quantity:      l.Qty,
			PriceSnapshot: l.Product.Price,
		})
	}

	var userID *uuid.UUID
	if buyer != nil {
		id := buyer.UserID
		userID = &id
	}
	o, err := order.New(userID, order.Customer{Name: form.Name, Email: form.Email, Address: form.Address}, items)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Create(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, o.ID.String(),
		telemetry.SpanAttrOrderNumber, o.UserOrderNo,
		telemetry.SpanAttrAmount, o.Total().String())
	log := logger.For(ctx, s.logger)
	log.Info("Order placed",
		zap.String("order_id", o.ID.String()),
		zap.Int("number", o.UserOrderNo),
		zap.String("total", o.Total().StringFixed(2)),
		zap.Bool("guest", o.IsGuest()))

	result := &PlaceResult{}
	if s.gateway != nil {
		session, err := s.openPaymentSession(ctx, o)
		if err == nil {
			o.AttachPaymentSession(session.ID)
			if err := s.orderRepo.Update(ctx, o); err != nil {
				return nil, err
			}
			c.Clear()
			s.metrics.OrderPlaced(telemetry.PaymentStripe)
			telemetry.AddEvent(span, "payment_session_created", telemetry.SpanAttrPaymentSessID, session.ID)
			result.Order = orderapp.ToOrderResponse(o)
			result.RedirectURL = session.URL
			return result, nil
		}
		log.Warn("Falling back to offline payment", zap.String("order_id", o.ID.String()), zap.Error(err))
		result.PaymentUnavailable = true
	}

	o.AwaitOfflinePayment()
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}
	c.Clear()
	s.metrics.OrderPlaced(telemetry.PaymentOffline)
	result.Order = orderapp.ToOrderResponse(o)
	return result, nil
}

// PaymentSucceeded handles the customer's return from the hosted payment
// page. The order is marked paid only when the gateway confirms its
// session was paid.
func (s *Service) PaymentSucceeded(ctx context.Context, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "PaymentSucceeded", telemetry.SpanAttrOrderID, orderID.String())
	defer span.End()

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil || o.StripeSessionID == "" {
		resp := orderapp.ToOrderResponse(o)
		return &resp, nil
	}

	session, err := s.gateway.GetCheckoutSession(ctx, o.StripeSessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.For(ctx, s.logger).Warn("Could not verify payment session",
			zap.String("order_id", o.ID.String()), zap.Error(err))
		resp := orderapp.ToOrderResponse(o)
		return &resp, nil
	}
	if session.Paid() && o.MarkPaid() {
		if err := s.orderRepo.Update(ctx, o); err != nil {
			return nil, err
		}
		s.metrics.PaymentOutcome(telemetry.OutcomePaid)
		logger.For(ctx, s.logger).Info("Order paid", zap.String("order_id", o.ID.String()))
	}
	resp := orderapp.ToOrderResponse(o)
	return &resp, nil
}

// PaymentCanceled handles the customer abandoning the hosted payment page.
// Paid orders are not affected.
func (s *Service) PaymentCanceled(ctx context.Context, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.MarkPaymentCanceled() {
		if err := s.orderRepo.Update(ctx, o); err != nil {
			return nil, err
		}
		s.metrics.PaymentOutcome(telemetry.OutcomeCanceled)
		logger.For(ctx, s.logger).Info("Payment canceled", zap.String("order_id", o.ID.String()))
	}
	resp := orderapp.ToOrderResponse(o)
	return &resp, nil
}

// HandleWebhook applies a signed gateway event. Each event is applied at
// most once; unknown event types are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrPaymentsDisabled
	}
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.WebhookEvent("", "rejected")
		logger.For(ctx, s.logger).Warn("Rejected payment webhook", zap.Error(err))
		if errors.Is(err, payment.ErrBadSignature) {
			return shared.ErrUnauthorized.WithMessage("Invalid webhook signature")
		}
		return shared.ErrInvalidInput.Wrap(err)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "HandleWebhook", telemetry.SpanAttrPaymentEvent, ev.Type)
	defer span.End()

	key := "stripe:event:" + ev.ID
	if s.events != nil {
		seen, err := s.events.IsProcessed(ctx, key)
		if err != nil {
			return err
		}
		if seen {
			s.metrics.WebhookEvent(ev.Type, "duplicate")
			return nil
		}
	}

	result, err := s.applyEvent(ctx, ev)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.WebhookEvent(ev.Type, "failed")
		return err
	}
	if s.events != nil {
		if _, err := s.events.MarkProcessed(ctx, key, webhookEventTTL); err != nil {
			logger.For(ctx, s.logger).Warn("Failed to record webhook event", zap.String("event_id", ev.ID), zap.Error(err))
		}
	}
	s.metrics.WebhookEvent(ev.Type, result)
	return nil
}

func (s *Service) applyEvent(ctx context.Context, ev *payment.Event) (string, error) {
	if ev.Session == nil {
		return "ignored", nil
	}
	switch ev.Type {
	case payment.EventCheckoutCompleted, payment.EventCheckoutExpired:
	default:
		return "ignored", nil
	}

	o, err := s.orderForSession(ctx, ev.Session)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.For(ctx, s.logger).Warn("Webhook for unknown order",
				zap.String("session_id", ev.Session.ID),
				zap.String("order_id", ev.Session.OrderID))
			return "unknown_order", nil
		}
		return "", err
	}

	changed := false
	switch ev.Type {
	case payment.EventCheckoutCompleted:
		if ev.Session.Paid() && o.MarkPaid() {
			changed = true
			s.metrics.PaymentOutcome(telemetry.OutcomePaid)
		}
	case payment.EventCheckoutExpired:
		if o.MarkPaymentCanceled() {
			changed = true
			s.metrics.PaymentOutcome(telemetry.OutcomeCanceled)
		}
	}
	if !changed {
		return "unchanged", nil
	}
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return "", err
	}
	logger.For(ctx, s.logger).Info("Order updated by webhook",
		zap.String("order_id", o.ID.String()),
		zap.String("event", ev.Type),
		zap.String("status", o.Status.String()))
	return "handled", nil
}

func (s *Service) orderForSession(ctx context.Context, session *payment.CheckoutSession) (*order.Order, error) {
	if id, err := uuid.Parse(session.OrderID); err == nil {
		o, err := s.orderRepo.FindByID(ctx, id)
		if err == nil && (o.StripeSessionID == "" || o.StripeSessionID == session.ID) {
			return o, nil
		}
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return s.orderRepo.FindByPaymentSession(ctx, session.ID)
}

func (s *Service) openPaymentSession(ctx context.Context, o *order.Order) (*payment.CheckoutSession, error) {
	items := make([]payment.LineItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = payment.LineItem{Name: it.ProductName, UnitPrice: it.PriceSnapshot, Quantity: it.Quantity}
	}
	id := o.ID.String()
	return s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		OrderID:       id,
		CustomerEmail: o.Email,
		Items:         items,
		SuccessURL:    s.config.BaseURL + "/payment/success?order_id=" + id,
		CancelURL:     s.config.BaseURL + "/payment/cancel?order_id=" + id,
	})
}

func (s *Service) lines(ctx context.Context, c *cart.Cart) ([]cart.Line, error) {
	ids := c.ProductIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines, _ := c.Lines(products)
	return lines, nil
}

func normalizeForm(f Form) Form {
	return Form{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.ToLower(strings.TrimSpace(f.Email)),
		Address: strings.TrimSpace(f.Address),
	}
}

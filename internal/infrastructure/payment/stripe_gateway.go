// Package payment talks to the hosted Stripe Checkout API.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/config"
)

// MetadataOrderID is the session metadata key holding our order id
const MetadataOrderID = "order_id"

// Webhook event types the shop reacts to
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// ErrBadSignature is returned when a webhook payload fails verification
var ErrBadSignature = errors.New("stripe: webhook signature verification failed")

// LineItem is one row of a hosted checkout page
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// CheckoutRequest describes the checkout session to open for an order
type CheckoutRequest struct {
	OrderID       string
	CustomerEmail string
	Items         []LineItem
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the subset of a Stripe session the shop needs
type CheckoutSession struct {
	ID            string
	URL           string
	OrderID       string
	PaymentStatus string
}

// Paid reports whether Stripe considers the session settled
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid) ||
		s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusNoPaymentRequired)
}

// Event is a verified webhook event. Session is set for checkout.session.* events.
type Event struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway opens and inspects Stripe Checkout sessions
type StripeGateway struct {
	sessions      sessionAPI
	currency      string
	webhookSecret string
	logger        *zap.Logger
}

// StripeOption configures a StripeGateway
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backends *stripe.Backends
}

// WithBackends overrides the HTTP backends, used by tests
func WithBackends(b *stripe.Backends) StripeOption {
	return func(o *stripeOptions) { o.backends = b }
}

// NewStripeGateway creates a gateway from configuration
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger, opts ...StripeOption) (*StripeGateway, error) {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if cfg.Currency == "" {
		return nil, errors.New("stripe: currency is required")
	}
	var o stripeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := client.New(key, o.backends)
	return &StripeGateway{
		sessions:      sc.CheckoutSessions,
		currency:      strings.ToLower(cfg.Currency),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}, nil
}

// CreateCheckoutSession opens a hosted payment page for req
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("stripe: checkout needs at least one line item")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		Metadata:          map[string]string{MetadataOrderID: req.OrderID},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{MetadataOrderID: req.OrderID},
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("checkout-" + req.OrderID)
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	params.LineItems = make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(max(it.Quantity, 1))),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.currency),
				UnitAmount: stripe.Int64(MinorUnits(it.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
			},
		})
	}

	s, err := g.sessions.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe checkout session",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	g.logger.Info("Created Stripe checkout session",
		zap.String("order_id", req.OrderID),
		zap.String("session_id", s.ID))
	return toSession(s), nil
}

// GetCheckoutSession fetches the current state of a session
func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session %s: %w", id, err)
	}
	return toSession(s), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrBadSignature)
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") && ev.Data != nil {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("stripe: decode %s payload: %w", out.Type, err)
		}
		out.Session = toSession(&s)
	}
	return out, nil
}

// MinorUnits converts an amount to the smallest currency unit, rounding half away from zero
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func toSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		OrderID:       s.Metadata[MetadataOrderID],
	}
	if out.OrderID == "" {
		out.OrderID = s.ClientReferenceID
	}
	return out
}

package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"

	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/config"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

const testWebhookSecret = "whsec_test_123"

func testStripeConfig() config.StripeConfig {
	return config.StripeConfig{
		SecretKey:      "sk_test_123456789",
		PublishableKey: "pk_test_123456789",
		WebhookSecret:  testWebhookSecret,
		Currency:       "USD",
	}
}

func newTestGateway(t *testing.T, handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) *StripeGateway {
	t.Helper()
	mock := &mockBackend{handler: handler}
	g, err := NewStripeGateway(testStripeConfig(), zap.NewNop(),
		WithBackends(&stripe.Backends{API: mock, Connect: mock, Uploads: mock}))
	require.NoError(t, err)
	return g
}

func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestNewStripeGateway_RequiresKey(t *testing.T) {
	cfg := testStripeConfig()
	cfg.SecretKey = " "
	_, err := NewStripeGateway(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "secret key is required")
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"1999.99", 199999},
		{"350.5", 35050},
		{"114.90", 11490},
		{"0.005", 1},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, MinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestStripeGateway_CreateCheckoutSession(t *testing.T) {
	var captured *stripe.CheckoutSessionParams
	g := newTestGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		assert.Equal(t, "POST", method)
		assert.Equal(t, "/v1/checkout/sessions", path)
		captured = params.(*stripe.CheckoutSessionParams)
		return []byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1","payment_status":"unpaid","metadata":{"order_id":"ord-1"}}`), nil
	})

	s, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{
		OrderID:       "ord-1",
		CustomerEmail: "ann@example.com",
		SuccessURL:    "http://shop.test/payment/success?order_id=ord-1",
		CancelURL:     "http://shop.test/payment/cancel?order_id=ord-1",
		Items: []LineItem{
			{Name: "Hoodie", UnitPrice: decimal.RequireFromString("1999.99"), Quantity: 2},
			{Name: "Stickers", UnitPrice: decimal.RequireFromString("114.90"), Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "ord-1", s.OrderID)
	assert.False(t, s.Paid())

	require.NotNil(t, captured)
	assert.Equal(t, "payment", *captured.Mode)
	assert.Equal(t, "ann@example.com", *captured.CustomerEmail)
	assert.Equal(t, "ord-1", captured.Metadata[MetadataOrderID])
	require.Len(t, captured.LineItems, 2)
	assert.Equal(t, int64(199999), *captured.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *captured.LineItems[0].Quantity)
	assert.Equal(t, "usd", *captured.LineItems[0].PriceData.Currency)
	assert.Equal(t, "Stickers", *captured.LineItems[1].PriceData.ProductData.Name)
	assert.Equal(t, "checkout-ord-1", *captured.IdempotencyKey)
}

func TestStripeGateway_CreateCheckoutSession_Errors(t *testing.T) {
	g := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{Code: stripe.ErrorCodeAPIKeyExpired, Msg: "expired key"}
	})

	_, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{OrderID: "ord-1"})
	assert.ErrorContains(t, err, "at least one line item")

	_, err = g.CreateCheckoutSession(context.Background(), CheckoutRequest{
		OrderID: "ord-1",
		Items:   []LineItem{{Name: "Mug", UnitPrice: decimal.NewFromInt(1), Quantity: 1}},
	})
	var se *stripe.Error
	assert.True(t, errors.As(err, &se))
}

func TestStripeGateway_GetCheckoutSession(t *testing.T) {
	g := newTestGateway(t, func(method, path string, _ stripe.ParamsContainer) ([]byte, error) {
		assert.Equal(t, "GET", method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_2", path)
		return []byte(`{"id":"cs_test_2","object":"checkout.session","payment_status":"paid","client_reference_id":"ord-2"}`), nil
	})

	s, err := g.GetCheckoutSession(context.Background(), "cs_test_2")
	require.NoError(t, err)
	assert.True(t, s.Paid())
	assert.Equal(t, "ord-2", s.OrderID, "falls back to client_reference_id")
}

func TestStripeGateway_ParseWebhook(t *testing.T) {
	g := newTestGateway(t, nil)
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed",` +
		`"data":{"object":{"id":"cs_test_3","object":"checkout.session","payment_status":"paid","metadata":{"order_id":"ord-3"}}}}`)

	t.Run("valid signature", func(t *testing.T) {
		ev, err := g.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, EventCheckoutCompleted, ev.Type)
		require.NotNil(t, ev.Session)
		assert.Equal(t, "ord-3", ev.Session.OrderID)
		assert.True(t, ev.Session.Paid())
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := g.ParseWebhook(payload, signPayload(payload, "whsec_other", time.Now()))
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		_, err := g.ParseWebhook(payload, signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("non checkout events carry no session", func(t *testing.T) {
		other := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)
		ev, err := g.ParseWebhook(other, signPayload(other, testWebhookSecret, time.Now()))
		require.NoError(t, err)
		assert.Nil(t, ev.Session)
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := testStripeConfig()
		cfg.WebhookSecret = ""
		noSecret, err := NewStripeGateway(cfg, zap.NewNop())
		require.NoError(t, err)
		_, err = noSecret.ParseWebhook(payload, "t=1,v1=00")
		assert.ErrorIs(t, err, ErrBadSignature)
	})
}

package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/cart"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/cache"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/payment"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memProducts is an in-memory catalog.ProductRepository
type memProducts map[uuid.UUID]catalog.Product

func (m memProducts) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (m memProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memProducts) FindByName(context.Context, string) (*catalog.Product, error) {
	return nil, shared.ErrNotFound
}
func (m memProducts) Search(context.Context, string) ([]catalog.Product, error) { return nil, nil }
func (m memProducts) Save(context.Context, *catalog.Product) error              { return nil }
func (m memProducts) Delete(context.Context, uuid.UUID) error                   { return nil }
func (m memProducts) Count(context.Context) (int64, error)                      { return int64(len(m)), nil }

func (m memProducts) CountByImage(_ context.Context, image string) (int64, error) {
	var n int64
	for _, p := range m {
		if p.Image == image {
			n++
		}
	}
	return n, nil
}

// memOrders is an in-memory order.Repository numbering orders per customer
type memOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]order.Order
}

func newMemOrders() *memOrders { return &memOrders{orders: map[uuid.UUID]order.Order{}} }

func (m *memOrders) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (m *memOrders) FindByPaymentSession(_ context.Context, sessionID string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if sessionID != "" && o.StripeSessionID == sessionID {
			return &o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memOrders) FindByUser(context.Context, uuid.UUID) ([]order.Order, error) { return nil, nil }
func (m *memOrders) FindByEmail(context.Context, string) ([]order.Order, error)   { return nil, nil }
func (m *memOrders) FindAll(context.Context, shared.Filter) (shared.Paginated[order.Order], error) {
	return shared.Paginated[order.Order]{}, nil
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := 0
	for _, other := range m.orders {
		same := false
		if o.UserID != nil {
			same = other.UserID != nil && *other.UserID == *o.UserID
		} else {
			same = other.UserID == nil && other.Email == o.Email
		}
		if same && other.UserOrderNo > last {
			last = other.UserOrderNo
		}
	}
	o.UserOrderNo = last + 1
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) Update(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return shared.ErrNotFound
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.orders)), nil
}

// fakeGateway records checkout requests and serves canned sessions
type fakeGateway struct {
	createErr error
	requests  []payment.CheckoutRequest
	status    string
	event     *payment.Event
	parseErr  error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.requests = append(g.requests, req)
	return &payment.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1", OrderID: req.OrderID}, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*payment.CheckoutSession, error) {
	return &payment.CheckoutSession{ID: id, PaymentStatus: g.status}, nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*payment.Event, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

type fixture struct {
	products memProducts
	orders   *memOrders
	metrics  *telemetry.Metrics
	ids      []uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{products: memProducts{}, orders: newMemOrders(), metrics: telemetry.NewMetrics("shop")}
	for _, price := range []string{"1999.99", "350.50"} {
		p, err := catalog.NewProduct(catalog.ProductInput{Name: "P" + price, Price: decimal.RequireFromString(price)})
		require.NoError(t, err)
		f.products[p.ID] = *p
		f.ids = append(f.ids, p.ID)
	}
	return f
}

func (f *fixture) service(t *testing.T, gateway PaymentGateway) *Service {
	t.Helper()
	events := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = events.Close() })
	if gateway == nil {
		return NewService(f.products, f.orders, nil, events, f.metrics, Config{BaseURL: "https://shop.test/"}, nil)
	}
	return NewService(f.products, f.orders, gateway, events, f.metrics, Config{BaseURL: "https://shop.test/"}, nil)
}

func (f *fixture) cart() *cart.Cart {
	c := &cart.Cart{}
	c.Add(f.ids[0], 1)
	c.Add(f.ids[1], 2)
	return c
}

var ann = Form{Name: "Ann", Email: " Ann@Example.com ", Address: "Moscow"}

func TestService_PlaceOrder_Offline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, nil)
	c := f.cart()

	res, err := svc.PlaceOrder(ctx, c, ann, nil)
	require.NoError(t, err)
	assert.Empty(t, res.RedirectURL)
	assert.False(t, res.PaymentUnavailable)
	assert.Equal(t, "awaiting_payment", res.Order.Status)
	assert.Equal(t, "ann@example.com", res.Order.Email)
	assert.Equal(t, "2700.99", res.Order.Total.StringFixed(2))
	assert.Equal(t, 1, res.Order.Number)
	assert.True(t, c.IsEmpty())

	res, err = svc.PlaceOrder(ctx, f.cart(), ann, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Order.Number, "guest orders are numbered per email")

	assert.Equal(t, 2.0, f.ordersPlaced(t, "offline"))
}

func (f *fixture) ordersPlaced(t *testing.T, path string) float64 {
	t.Helper()
	families, err := f.metrics.Registry().Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != "shop_orders_placed_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "payment" && l.GetValue() == path {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestService_PlaceOrder_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, nil)

	_, err := svc.PlaceOrder(ctx, f.cart(), Form{Name: "Ann", Email: "ann@example.com"}, nil)
	assert.ErrorIs(t, err, order.ErrMissingDetails)

	_, err = svc.PlaceOrder(ctx, &cart.Cart{}, ann, nil)
	assert.ErrorIs(t, err, order.ErrEmptyOrder)

	stale := &cart.Cart{}
	stale.Add(uuid.New(), 3)
	_, err = svc.PlaceOrder(ctx, stale, ann, nil)
	assert.ErrorIs(t, err, order.ErrEmptyOrder)
	assert.False(t, stale.IsEmpty(), "the cart is kept when nothing was ordered")
}

func TestService_PlaceOrder_BuyerDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, nil)
	buyer := &Buyer{UserID: uuid.New(), FullName: "Ann Smith", Email: "ann@example.com", DefaultAddress: "Moscow, Tverskaya 1"}

	assert.Equal(t, Form{Name: "Ann Smith", Email: "ann@example.com", Address: "Moscow, Tverskaya 1"}, svc.Prefill(buyer))
	assert.Equal(t, Form{}, svc.Prefill(nil))

	res, err := svc.PlaceOrder(ctx, f.cart(), Form{Name: "Ann", Email: "ann@example.com"}, buyer)
	require.NoError(t, err)
	assert.Equal(t, "Moscow, Tverskaya 1", res.Order.Address)
	require.NotNil(t, res.Order.UserID)
	assert.Equal(t, buyer.UserID, *res.Order.UserID)
}

func TestService_PlaceOrder_Stripe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gw := &fakeGateway{}
	svc := f.service(t, gw)
	c := f.cart()

	res, err := svc.PlaceOrder(ctx, c, ann, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_1", res.RedirectURL)
	assert.Equal(t, "pending", res.Order.Status)
	assert.True(t, c.IsEmpty())

	require.Len(t, gw.requests, 1)
	req := gw.requests[0]
	assert.Equal(t, "ann@example.com", req.CustomerEmail)
	assert.Equal(t, "https://shop.test/payment/success?order_id="+res.Order.ID.String(), req.SuccessURL)
	assert.Equal(t, "https://shop.test/payment/cancel?order_id="+res.Order.ID.String(), req.CancelURL)
	assert.Len(t, req.Items, 2)

	stored, err := f.orders.FindByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", stored.StripeSessionID)
}

func TestService_PlaceOrder_StripeFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, &fakeGateway{createErr: errors.New("card_declined")})

	res, err := svc.PlaceOrder(ctx, f.cart(), ann, nil)
	require.NoError(t, err)
	assert.True(t, res.PaymentUnavailable)
	assert.Empty(t, res.RedirectURL)
	assert.Equal(t, "awaiting_payment", res.Order.Status)
}

func TestService_PaymentReturn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gw := &fakeGateway{status: "unpaid"}
	svc := f.service(t, gw)

	placed, err := svc.PlaceOrder(ctx, f.cart(), ann, nil)
	require.NoError(t, err)
	id := placed.Order.ID

	got, err := svc.PaymentSucceeded(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status, "an unpaid session does not settle the order")

	gw.status = "paid"
	got, err = svc.PaymentSucceeded(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status)

	got, err = svc.PaymentCanceled(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status, "a paid order cannot be canceled by the return URL")

	_, err = svc.PaymentSucceeded(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_PaymentCanceled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, &fakeGateway{})

	placed, err := svc.PlaceOrder(ctx, f.cart(), ann, nil)
	require.NoError(t, err)

	got, err := svc.PaymentCanceled(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "canceled", got.Status)
}

func TestService_HandleWebhook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gw := &fakeGateway{}
	svc := f.service(t, gw)

	placed, err := svc.PlaceOrder(ctx, f.cart(), ann, nil)
	require.NoError(t, err)

	gw.event = &payment.Event{
		ID:   "evt_1",
		Type: payment.EventCheckoutCompleted,
		Session: &payment.CheckoutSession{
			ID:            "cs_test_1",
			OrderID:       placed.Order.ID.String(),
			PaymentStatus: "paid",
		},
	}
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))
	stored, _ := f.orders.FindByID(ctx, placed.Order.ID)
	assert.Equal(t, order.StatusPaid, stored.Status)

	// a replay of the same event is acknowledged without effect
	stored.SetStatus(order.StatusPending)
	require.NoError(t, f.orders.Update(ctx, stored))
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))
	stored, _ = f.orders.FindByID(ctx, placed.Order.ID)
	assert.Equal(t, order.StatusPending, stored.Status)

	gw.event = &payment.Event{ID: "evt_2", Type: payment.EventCheckoutExpired,
		Session: &payment.CheckoutSession{ID: "cs_test_1"}}
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))
	stored, _ = f.orders.FindByID(ctx, placed.Order.ID)
	assert.Equal(t, order.StatusCanceled, stored.Status, "found through the session id")

	gw.event = &payment.Event{ID: "evt_3", Type: "customer.created"}
	assert.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "sig"))

	gw.parseErr = payment.ErrBadSignature
	assert.ErrorIs(t, svc.HandleWebhook(ctx, []byte("{}"), "bad"), shared.ErrUnauthorized)
}

func TestService_HandleWebhook_Disabled(t *testing.T) {
	f := newFixture(t)
	err := f.service(t, nil).HandleWebhook(context.Background(), []byte("{}"), "sig")
	assert.ErrorIs(t, err, ErrPaymentsDisabled)
}

package cart

import (
	"context"
	"testing"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/cart"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProducts is an in-memory catalog.ProductRepository
type stubProducts map[uuid.UUID]catalog.Product

func (s stubProducts) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, shared.ErrNotFound.WithMessage("Product not found")
	}
	return &p, nil
}

func (s stubProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	out := []catalog.Product{}
	for _, id := range ids {
		if p, ok := s[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s stubProducts) FindByName(context.Context, string) (*catalog.Product, error) {
	return nil, shared.ErrNotFound
}
func (s stubProducts) Search(context.Context, string) ([]catalog.Product, error) { return nil, nil }
func (s stubProducts) Save(context.Context, *catalog.Product) error              { return nil }
func (s stubProducts) Delete(context.Context, uuid.UUID) error                   { return nil }
func (s stubProducts) Count(context.Context) (int64, error)                      { return int64(len(s)), nil }

func (s stubProducts) CountByImage(_ context.Context, image string) (int64, error) {
	var n int64
	for _, p := range s {
		if p.Image == image {
			n++
		}
	}
	return n, nil
}

func newStub(t *testing.T, prices ...string) (stubProducts, []uuid.UUID) {
	t.Helper()
	stub := stubProducts{}
	ids := make([]uuid.UUID, len(prices))
	for i, price := range prices {
		p, err := catalog.NewProduct(catalog.ProductInput{Name: "P" + price, Price: decimal.RequireFromString(price)})
		require.NoError(t, err)
		stub[p.ID] = *p
		ids[i] = p.ID
	}
	return stub, ids
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()
	stub, ids := newStub(t, "1999.99")
	svc := NewService(stub, nil)
	var c cart.Cart

	res, err := svc.Add(ctx, &c, ids[0], 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Qty, "quantities below one count as one")

	res, err = svc.Add(ctx, &c, ids[0], 3)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Qty)
	assert.Equal(t, 1, res.CartSize)

	_, err = svc.Add(ctx, &c, uuid.New(), 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, 1, c.Size())
}

func TestService_View(t *testing.T) {
	ctx := context.Background()
	stub, ids := newStub(t, "1999.99", "350.50")
	svc := NewService(stub, nil)
	var c cart.Cart
	c.Add(ids[0], 2)
	c.Add(ids[1], 1)
	c.Add(uuid.New(), 5) // deleted from the catalog

	view, err := svc.View(ctx, &c)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
	assert.Equal(t, "4350.48", view.Total.StringFixed(2))

	empty, err := svc.View(ctx, &cart.Cart{})
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.Total.IsZero())
}

func TestService_ApplyUpdates(t *testing.T) {
	ctx := context.Background()
	stub, ids := newStub(t, "114.90", "350.50")
	svc := NewService(stub, nil)
	var c cart.Cart
	c.Add(ids[0], 1)
	c.Add(ids[1], 1)

	res, err := svc.ApplyUpdates(ctx, &c, []Update{
		{ProductID: ids[0].String(), Qty: 3},
		{ProductID: ids[1].String(), Qty: -2},
		{ProductID: "not-a-uuid", Qty: 9},
	})
	require.NoError(t, err)
	assert.Equal(t, "344.70", res.Total.StringFixed(2))
	assert.Equal(t, map[string]string{ids[0].String(): "344.7"}, stringify(res.Lines))
	assert.Equal(t, 1, res.CartSize)
	assert.Zero(t, c.Quantity(ids[1]))
}

func TestService_Replace(t *testing.T) {
	stub, ids := newStub(t, "114.90", "350.50")
	svc := NewService(stub, nil)
	var c cart.Cart
	c.Add(ids[0], 7)
	stale := uuid.New()
	c.Add(stale, 1)

	svc.Replace(&c, map[string]string{
		ids[0].String(): "2",
		ids[1].String(): "0",
		"garbage":       "4",
	})
	assert.Equal(t, 2, c.Quantity(ids[0]))
	assert.Zero(t, c.Quantity(ids[1]))
	assert.Zero(t, c.Quantity(stale))
	assert.Equal(t, 1, c.Size())
}

func stringify(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.String()
	}
	return out
}

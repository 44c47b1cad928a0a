package catalog

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/markup"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	products   *MockProductRepository
	categories *MockCategoryRepository
	images     *MockImageStorage
	orders     *MockOrderCounter
	service    *ProductService
}

func newProductFixture() *productFixture {
	f := &productFixture{
		products:   new(MockProductRepository),
		categories: new(MockCategoryRepository),
		images:     new(MockImageStorage),
		orders:     new(MockOrderCounter),
	}
	f.service = NewProductService(f.products, f.categories, f.orders, f.images, markup.NewRenderer(), nil)
	return f
}

func mustProduct(t *testing.T, name, price, image string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductInput{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Description: "**Хлопковая** футболка",
		Image:       image,
	})
	require.NoError(t, err)
	return p
}

func TestProductService_Browse(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	category, _ := catalog.NewCategory("Одежда")
	shirt := mustProduct(t, "Футболка", "1999.99", "")
	shirt.CategoryID = &category.ID

	f.products.On("Search", mock.Anything, "футб").Return([]catalog.Product{*shirt}, nil)
	f.categories.On("FindAll", mock.Anything).Return([]catalog.Category{*category}, nil)

	got, err := f.service.Browse(ctx, "футб")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Одежда", got[0].CategoryName)
	assert.Equal(t, "Хлопковая футболка", got[0].Excerpt)
}

func TestProductService_GetProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("renders description", func(t *testing.T) {
		f := newProductFixture()
		shirt := mustProduct(t, "Футболка", "1999.99", "")
		f.products.On("FindByID", ctx, shirt.ID).Return(shirt, nil)
		f.categories.On("FindAll", ctx).Return([]catalog.Category{}, nil)

		got, err := f.service.GetProduct(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Contains(t, string(got.DescriptionHTML), "<strong>Хлопковая</strong>")
	})

	t.Run("not found", func(t *testing.T) {
		f := newProductFixture()
		id := uuid.New()
		f.products.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.GetProduct(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("with uploaded image", func(t *testing.T) {
		f := newProductFixture()
		category, _ := catalog.NewCategory("Сувениры")
		upload := bytes.NewReader([]byte("png"))
		f.categories.On("FindByID", ctx, category.ID).Return(category, nil)
		f.images.On("Save", ctx, storage.FolderProducts, upload).Return("/static/uploads/products/a.png", nil)
		f.products.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

		got, err := f.service.Create(ctx, ProductRequest{
			Name:       "Кружка",
			Price:      "350,50",
			ImageURL:   "https://cdn.example.com/mug.png",
			CategoryID: category.ID.String(),
			Upload:     upload,
		})
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("350.50").Equal(got.Price))
		assert.Equal(t, "/static/uploads/products/a.png", got.Image)
		assert.Equal(t, &category.ID, got.CategoryID)
	})

	t.Run("empty price is zero", func(t *testing.T) {
		f := newProductFixture()
		f.products.On("Save", ctx, mock.Anything).Return(nil)

		got, err := f.service.Create(ctx, ProductRequest{Name: "Наклейки"})
		require.NoError(t, err)
		assert.True(t, got.Price.IsZero())
		assert.Nil(t, got.CategoryID)
	})

	t.Run("invalid price", func(t *testing.T) {
		f := newProductFixture()
		_, err := f.service.Create(ctx, ProductRequest{Name: "Наклейки", Price: "дёшево"})
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("missing name", func(t *testing.T) {
		f := newProductFixture()
		_, err := f.service.Create(ctx, ProductRequest{Price: "10"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "PRODUCT_NAME_REQUIRED", de.Code)
		f.images.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown category", func(t *testing.T) {
		f := newProductFixture()
		id := uuid.New()
		f.categories.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.Create(ctx, ProductRequest{Name: "Кружка", CategoryID: id.String()})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("removes upload when the product cannot be saved", func(t *testing.T) {
		f := newProductFixture()
		upload := bytes.NewReader([]byte("png"))
		f.images.On("Save", ctx, storage.FolderProducts, upload).Return("/static/uploads/products/b.png", nil)
		f.images.On("Delete", ctx, "/static/uploads/products/b.png").Return(nil)
		f.products.On("Save", ctx, mock.Anything).Return(errors.New("disk full"))
		f.products.On("CountByImage", ctx, "/static/uploads/products/b.png").Return(int64(0), nil)

		_, err := f.service.Create(ctx, ProductRequest{Name: "Кружка", Upload: upload})
		require.Error(t, err)
		f.images.AssertExpectations(t)
	})
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps image when none given", func(t *testing.T) {
		f := newProductFixture()
		p := mustProduct(t, "Футболка", "1999.99", "/static/img/tshirt.svg")
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)
		f.products.On("Save", ctx, p).Return(nil)

		got, err := f.service.Update(ctx, p.ID, ProductRequest{Name: "Футболка XL", Price: "2100"})
		require.NoError(t, err)
		assert.Equal(t, "Футболка XL", got.Name)
		assert.Equal(t, "/static/img/tshirt.svg", got.Image)
		f.images.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("replaces uploaded image", func(t *testing.T) {
		f := newProductFixture()
		p := mustProduct(t, "Футболка", "1999.99", "/static/uploads/products/old.png")
		upload := bytes.NewReader([]byte("png"))
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)
		f.images.On("Save", ctx, storage.FolderProducts, upload).Return("/static/uploads/products/new.png", nil)
		f.products.On("Save", ctx, p).Return(nil)
		f.products.On("CountByImage", ctx, "/static/uploads/products/old.png").Return(int64(0), nil)
		f.images.On("Delete", ctx, "/static/uploads/products/old.png").Return(nil)

		got, err := f.service.Update(ctx, p.ID, ProductRequest{Name: "Футболка", Price: "1999.99", Upload: upload})
		require.NoError(t, err)
		assert.Equal(t, "/static/uploads/products/new.png", got.Image)
		f.images.AssertExpectations(t)
	})

	t.Run("keeps an old image another product still shows", func(t *testing.T) {
		f := newProductFixture()
		p := mustProduct(t, "Футболка", "1999.99", "/static/uploads/products/shared.png")
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)
		f.products.On("Save", ctx, p).Return(nil)
		f.products.On("CountByImage", ctx, "/static/uploads/products/shared.png").Return(int64(1), nil)

		got, err := f.service.Update(ctx, p.ID, ProductRequest{
			Name: "Футболка", Price: "1999.99", ImageURL: "https://cdn.example/tee.png",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/tee.png", got.Image)
		f.images.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the image", func(t *testing.T) {
		f := newProductFixture()
		p := mustProduct(t, "Кружка", "350.50", "/static/uploads/products/mug.png")
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)
		f.products.On("Delete", ctx, p.ID).Return(nil)
		f.products.On("CountByImage", ctx, "/static/uploads/products/mug.png").Return(int64(0), nil)
		f.images.On("Delete", ctx, "/static/uploads/products/mug.png").Return(errors.New("gone"))

		require.NoError(t, f.service.Delete(ctx, p.ID), "image cleanup failures are not fatal")
		f.products.AssertExpectations(t)
		f.images.AssertExpectations(t)
	})

	t.Run("keeps an image another product shows", func(t *testing.T) {
		f := newProductFixture()
		p := mustProduct(t, "Кружка", "350.50", "/static/uploads/products/mug.png")
		f.products.On("FindByID", ctx, p.ID).Return(p, nil)
		f.products.On("Delete", ctx, p.ID).Return(nil)
		f.products.On("CountByImage", ctx, "/static/uploads/products/mug.png").Return(int64(1), nil)

		require.NoError(t, f.service.Delete(ctx, p.ID))
		f.images.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestProductService_Stats(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.products.On("Count", ctx).Return(int64(3), nil)
	f.categories.On("Count", ctx).Return(int64(2), nil)
	f.orders.On("Count", ctx).Return(int64(7), nil)

	stats, err := f.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{Products: 3, Categories: 2, Orders: 7}, *stats)
}

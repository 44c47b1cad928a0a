package catalog

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	t.Run("trims the name", func(t *testing.T) {
		c, err := NewCategory("  Сувениры ")
		require.NoError(t, err)
		assert.Equal(t, "Сувениры", c.Name)
		assert.NotEqual(t, uuid.Nil, c.ID)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewCategory("   ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("counts runes, not bytes", func(t *testing.T) {
		_, err := NewCategory(strings.Repeat("я", 100))
		assert.NoError(t, err)
		_, err = NewCategory(strings.Repeat("я", 101))
		assert.Error(t, err)
	})
}

func TestCategory_Rename(t *testing.T) {
	c, err := NewCategory("Old")
	require.NoError(t, err)

	require.NoError(t, c.Rename("New"))
	assert.Equal(t, "New", c.Name)

	assert.Error(t, c.Rename(""))
	assert.Equal(t, "New", c.Name)
}

func TestNewProduct(t *testing.T) {
	catID := uuid.New()

	t.Run("rounds price to cents", func(t *testing.T) {
		p, err := NewProduct(ProductInput{
			Name:       "Mug",
			Price:      decimal.RequireFromString("350.505"),
			CategoryID: &catID,
			Image:      "img/mug.png",
		})
		require.NoError(t, err)
		assert.Equal(t, "350.51", p.Price.StringFixed(2))
		assert.Equal(t, &catID, p.CategoryID)
		assert.Equal(t, "img/mug.png", p.Image)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct(ProductInput{Name: "Mug", Price: decimal.NewFromInt(-1)})
		assert.Error(t, err)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := NewProduct(ProductInput{Price: decimal.NewFromInt(1)})
		assert.Error(t, err)
	})
}

func TestProduct_Update(t *testing.T) {
	p, err := NewProduct(ProductInput{Name: "Shirt", Price: decimal.NewFromInt(10), Image: "uploads/a.png"})
	require.NoError(t, err)

	t.Run("keeps image when none provided", func(t *testing.T) {
		require.NoError(t, p.Update(ProductInput{Name: "Shirt 2", Price: decimal.NewFromInt(12)}))
		assert.Equal(t, "Shirt 2", p.Name)
		assert.Equal(t, "uploads/a.png", p.Image)
		assert.Nil(t, p.CategoryID)
	})

	t.Run("replaces image when provided", func(t *testing.T) {
		require.NoError(t, p.Update(ProductInput{Name: "Shirt", Price: decimal.NewFromInt(12), Image: "https://cdn.example.com/b.png"}))
		assert.Equal(t, "https://cdn.example.com/b.png", p.Image)
		assert.True(t, p.HasExternalImage())
	})
}

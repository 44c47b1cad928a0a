package catalog

import (
	"context"
	"testing"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates trimmed name", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		repo.On("ExistsByName", ctx, "Одежда").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.Category")).Return(nil)

		resp, err := NewCategoryService(repo, nil).Create(ctx, "  Одежда ")
		require.NoError(t, err)
		assert.Equal(t, "Одежда", resp.Name)
		repo.AssertExpectations(t)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		_, err := NewCategoryService(repo, nil).Create(ctx, "   ")
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "CATEGORY_NAME_REQUIRED", de.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		repo.On("ExistsByName", ctx, "Стикеры").Return(true, nil)

		_, err := NewCategoryService(repo, nil).Create(ctx, "Стикеры")
		assert.ErrorIs(t, err, ErrCategoryExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("maps unique violation from a concurrent insert", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		repo.On("ExistsByName", ctx, "Стикеры").Return(false, nil)
		repo.On("Save", ctx, mock.Anything).Return(shared.ErrAlreadyExists.WithMessage("Category already exists"))

		_, err := NewCategoryService(repo, nil).Create(ctx, "Стикеры")
		assert.ErrorIs(t, err, ErrCategoryExists)
	})
}

func TestCategoryService_Rename(t *testing.T) {
	ctx := context.Background()
	category, err := catalog.NewCategory("Одежда")
	require.NoError(t, err)

	t.Run("to a free name", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		repo.On("FindByID", ctx, category.ID).Return(category, nil)
		repo.On("FindByName", ctx, "Мерч").Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, category).Return(nil)

		resp, err := NewCategoryService(repo, nil).Rename(ctx, category.ID, "Мерч")
		require.NoError(t, err)
		assert.Equal(t, "Мерч", resp.Name)
	})

	t.Run("to a name taken by another category", func(t *testing.T) {
		other, _ := catalog.NewCategory("Сувениры")
		repo := new(MockCategoryRepository)
		repo.On("FindByID", ctx, category.ID).Return(category, nil)
		repo.On("FindByName", ctx, "Сувениры").Return(other, nil)

		_, err := NewCategoryService(repo, nil).Rename(ctx, category.ID, "Сувениры")
		assert.ErrorIs(t, err, ErrCategoryExists)
	})

	t.Run("missing category", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		repo.On("FindByID", ctx, category.ID).Return(nil, shared.ErrNotFound)

		_, err := NewCategoryService(repo, nil).Rename(ctx, category.ID, "Мерч")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()
	category, _ := catalog.NewCategory("Стикеры")

	repo := new(MockCategoryRepository)
	repo.On("Delete", ctx, category.ID).Return(nil)
	require.NoError(t, NewCategoryService(repo, nil).Delete(ctx, category.ID))
	repo.AssertExpectations(t)
}

package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCategoryExists is returned when a category name is already taken
var ErrCategoryExists = shared.NewDomainError("CATEGORY_EXISTS", "Category already exists")

// CategoryService handles category administration
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categoryRepo: categoryRepo, logger: logger}
}

// List returns all categories ordered by name
func (s *CategoryService) List(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToCategoryResponses(categories), nil
}

// GetByID retrieves a category by ID
func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Create creates a new category
func (s *CategoryService) Create(ctx context.Context, name string) (*CategoryResponse, error) {
	category, err := catalog.NewCategory(name)
	if err != nil {
		return nil, err
	}

	exists, err := s.categoryRepo.ExistsByName(ctx, category.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCategoryExists
	}

	if err := s.save(ctx, category); err != nil {
		return nil, err
	}
	s.logger.Info("Category created", zap.String("category_id", category.ID.String()), zap.String("name", category.Name))
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Rename changes the name of a category
func (s *CategoryService) Rename(ctx context.Context, id uuid.UUID, name string) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := category.Rename(name); err != nil {
		return nil, err
	}

	other, err := s.categoryRepo.FindByName(ctx, category.Name)
	switch {
	case err == nil && other.ID != category.ID:
		return nil, ErrCategoryExists
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	if err := s.save(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Delete removes a category. Its products stay in the catalog without a category.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}

// ensure returns the category named name, creating it if needed
func (s *CategoryService) ensure(ctx context.Context, name string) (*catalog.Category, error) {
	name = strings.TrimSpace(name)
	category, err := s.categoryRepo.FindByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	category, err = catalog.NewCategory(name)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) save(ctx context.Context, category *catalog.Category) error {
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return ErrCategoryExists
		}
		return err
	}
	return nil
}

package catalog

import (
	"context"
	"errors"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type demoProduct struct {
	name        string
	price       string
	description string
	image       string
	category    string
}

var demoCategories = []string{"Одежда", "Сувениры", "Стикеры"}

var demoProducts = []demoProduct{
	{
		name:        "Футболка hack_yourself",
		price:       "1999.99",
		description: "Хлопковая футболка c принтом hack_yourself",
		image:       "/static/img/tshirt.svg",
		category:    "Одежда",
	},
	{
		name:        "Кружка hack_yourself",
		price:       "350.50",
		description: "Керамическая кружка c логотипом hack_yourself",
		image:       "/static/img/mug.svg",
		category:    "Сувениры",
	},
	{
		name:        "Наклейки hack_yourself",
		price:       "114.90",
		description: "Набор наклеек hack_yourself",
		image:       "/static/img/stickers.svg",
		category:    "Стикеры",
	},
}

// SeedResult reports what a seeding run created
type SeedResult struct {
	Categories int
	Products   int
}

// Seeder fills an empty shop with demo data
type Seeder struct {
	categories  *CategoryService
	productRepo catalog.ProductRepository
	faker       *gofakeit.Faker
	logger      *zap.Logger
}

// NewSeeder creates a seeder. faker may be nil when no fake products are wanted.
func NewSeeder(categoryRepo catalog.CategoryRepository, productRepo catalog.ProductRepository, faker *gofakeit.Faker, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if faker == nil {
		faker = gofakeit.New(0)
	}
	return &Seeder{
		categories:  NewCategoryService(categoryRepo, logger),
		productRepo: productRepo,
		faker:       faker,
		logger:      logger,
	}
}

// SeedDemo creates the demo categories and products that do not exist
// yet, then fakeCount generated products. Running it twice without fakes
// changes nothing.
func (s *Seeder) SeedDemo(ctx context.Context, fakeCount int) (*SeedResult, error) {
	result := &SeedResult{}
	byName := make(map[string]*catalog.Category, len(demoCategories))
	for _, name := range demoCategories {
		existed, err := s.categories.categoryRepo.ExistsByName(ctx, name)
		if err != nil {
			return nil, err
		}
		category, err := s.categories.ensure(ctx, name)
		if err != nil {
			return nil, err
		}
		if !existed {
			result.Categories++
		}
		byName[name] = category
	}

	for _, d := range demoProducts {
		_, err := s.productRepo.FindByName(ctx, d.name)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		categoryID := byName[d.category].ID
		product, err := catalog.NewProduct(catalog.ProductInput{
			Name:        d.name,
			Price:       decimal.RequireFromString(d.price),
			Description: d.description,
			Image:       d.image,
			CategoryID:  &categoryID,
		})
		if err != nil {
			return nil, err
		}
		if err := s.productRepo.Save(ctx, product); err != nil {
			return nil, err
		}
		result.Products++
	}

	for i := 0; i < fakeCount; i++ {
		category := byName[demoCategories[s.faker.Number(0, len(demoCategories)-1)]]
		product, err := catalog.NewProduct(catalog.ProductInput{
			Name:        s.faker.ProductName(),
			Price:       decimal.NewFromFloat(s.faker.Price(50, 5000)).Round(2),
			Description: s.faker.ProductDescription(),
			CategoryID:  &category.ID,
		})
		if err != nil {
			return nil, err
		}
		if err := s.productRepo.Save(ctx, product); err != nil {
			return nil, err
		}
		result.Products++
	}

	s.logger.Info("Demo data seeded",
		zap.Int("categories", result.Categories),
		zap.Int("products", result.Products))
	return result, nil
}

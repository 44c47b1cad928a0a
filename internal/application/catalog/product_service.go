package catalog

import (
	"context"
	"errors"
	"html/template"
	"strings"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/storage"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const excerptLength = 140

// ErrInvalidPrice is returned when the price field is not a number
var ErrInvalidPrice = shared.NewDomainError("INVALID_PRICE", "Price must be a non-negative number")

// DescriptionRenderer turns stored product descriptions into HTML
type DescriptionRenderer interface {
	Render(src string) template.HTML
	Excerpt(src string, n int) string
}

// OrderCounter counts placed orders for the dashboard
type OrderCounter interface {
	Count(ctx context.Context) (int64, error)
}

// ProductService serves the catalog and product administration
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	orders       OrderCounter
	images       storage.ImageStorage
	renderer     DescriptionRenderer
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	orders OrderCounter,
	images storage.ImageStorage,
	renderer DescriptionRenderer,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		orders:       orders,
		images:       images,
		renderer:     renderer,
		logger:       logger,
	}
}

// Browse returns the catalog newest first. A non-empty query filters by
// name or description, ignoring case.
func (s *ProductService) Browse(ctx context.Context, query string) ([]ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "Browse", "query", query)
	defer span.End()

	products, err := s.productRepo.Search(ctx, query)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = s.toResponse(&products[i], names)
		if s.renderer != nil {
			out[i].Excerpt = s.renderer.Excerpt(products[i].Description, excerptLength)
		}
	}
	return out, nil
}

// GetProduct returns a product with its rendered description
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(product, names)
	if s.renderer != nil {
		resp.DescriptionHTML = s.renderer.Render(product.Description)
	}
	return &resp, nil
}

// List returns all products for the admin panel, newest first
func (s *ProductService) List(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.productRepo.Search(ctx, "")
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = s.toResponse(&products[i], names)
	}
	return out, nil
}

// Create creates a new product. An uploaded image replaces the image URL.
func (s *ProductService) Create(ctx context.Context, req ProductRequest) (*ProductResponse, error) {
	input, err := s.parseInput(ctx, req)
	if err != nil {
		return nil, err
	}
	product, err := catalog.NewProduct(input)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.upload(ctx, req)
	if err != nil {
		return nil, err
	}
	product.ReplaceImage(uploaded)

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.discard(ctx, uploaded)
		return nil, err
	}
	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
		zap.String("price", product.Price.StringFixed(2)))
	resp := ToProductResponse(product)
	return &resp, nil
}

// Update edits a product. The image only changes when a new URL or file
// is given.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input, err := s.parseInput(ctx, req)
	if err != nil {
		return nil, err
	}
	previous := product.Image
	if err := product.Update(input); err != nil {
		return nil, err
	}

	uploaded, err := s.upload(ctx, req)
	if err != nil {
		return nil, err
	}
	product.ReplaceImage(uploaded)

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.discard(ctx, uploaded)
		return nil, err
	}
	if product.Image != previous {
		s.discard(ctx, previous)
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete removes a product. Past orders keep their line snapshots.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.discard(ctx, product.Image)
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// Stats returns the admin dashboard counters
func (s *ProductService) Stats(ctx context.Context) (*DashboardStats, error) {
	products, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	var orders int64
	if s.orders != nil {
		if orders, err = s.orders.Count(ctx); err != nil {
			return nil, err
		}
	}
	return &DashboardStats{Products: products, Categories: categories, Orders: orders}, nil
}

// parseInput converts the raw form into a ProductInput. An empty price
// means zero; an empty category means none.
func (s *ProductService) parseInput(ctx context.Context, req ProductRequest) (catalog.ProductInput, error) {
	input := catalog.ProductInput{
		Name:        req.Name,
		Price:       decimal.Zero,
		Description: strings.TrimSpace(req.Description),
		Image:       strings.TrimSpace(req.ImageURL),
	}
	if raw := strings.TrimSpace(strings.ReplaceAll(req.Price, ",", ".")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return input, ErrInvalidPrice
		}
		input.Price = price
	}
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return input, shared.ErrInvalidInput.WithMessage("Unknown category")
		}
		if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return input, shared.ErrInvalidInput.WithMessage("Unknown category")
			}
			return input, err
		}
		input.CategoryID = &id
	}
	return input, nil
}

func (s *ProductService) upload(ctx context.Context, req ProductRequest) (string, error) {
	if req.Upload == nil || s.images == nil {
		return "", nil
	}
	url, err := s.images.Save(ctx, storage.FolderProducts, req.Upload)
	if err != nil {
		return "", err
	}
	return url, nil
}

// discard removes an image the storage owns unless another product still
// shows it. Failures only leave an
// orphaned file behind, so they are logged.
func (s *ProductService) discard(ctx context.Context, url string) {
	if url == "" || s.images == nil {
		return
	}
	inUse, err := s.productRepo.CountByImage(ctx, url)
	if err != nil {
		s.logger.Warn("Keeping product image, usage check failed", zap.String("image", url), zap.Error(err))
		return
	}
	if inUse > 0 {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn("Failed to delete product image", zap.String("image", url), zap.Error(err))
	}
}

func (s *ProductService) categoryNames(ctx context.Context) (map[uuid.UUID]string, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (s *ProductService) toResponse(p *catalog.Product, names map[uuid.UUID]string) ProductResponse {
	resp := ToProductResponse(p)
	if p.CategoryID != nil {
		resp.CategoryName = names[*p.CategoryID]
	}
	return resp
}

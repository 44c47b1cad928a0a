// Package cart implements the session cart use cases.
package cart

import (
	"context"
	"strconv"
	"strings"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/cart"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LineResponse is one cart row
type LineResponse struct {
	ProductID uuid.UUID       `json:"pid"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// View is the cart joined with the catalog
type View struct {
	Lines []LineResponse
	Total decimal.Decimal
	Size  int
}

// IsEmpty reports whether the cart has nothing to check out
func (v *View) IsEmpty() bool {
	return len(v.Lines) == 0
}

// AddResult answers an add-to-cart request
type AddResult struct {
	ProductID   uuid.UUID
	ProductName string
	Qty         int
	CartSize    int
}

// Update is one entry of a bulk quantity change
type Update struct {
	ProductID string
	Qty       int
}

// UpdateResult answers a bulk quantity change
type UpdateResult struct {
	Total    decimal.Decimal
	Lines    map[string]decimal.Decimal
	CartSize int
}

// Service reads and changes carts. Carts are owned by the caller, which
// persists them in the session.
type Service struct {
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewService creates a new cart Service
func NewService(productRepo catalog.ProductRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{productRepo: productRepo, logger: logger}
}

// View returns the cart rows and total. Products deleted from the
// catalog are left out.
func (s *Service) View(ctx context.Context, c *cart.Cart) (*View, error) {
	lines, total, err := s.lines(ctx, c)
	if err != nil {
		return nil, err
	}
	view := &View{Lines: make([]LineResponse, len(lines)), Total: total, Size: c.Size()}
	for i, l := range lines {
		view.Lines[i] = LineResponse{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Image:     l.Product.Image,
			Price:     l.Product.Price,
			Qty:       l.Qty,
			LineTotal: l.LineTotal.Round(2),
		}
	}
	return view, nil
}

// Add puts qty units of a product into the cart. The product must exist.
func (s *Service) Add(ctx context.Context, c *cart.Cart, productID uuid.UUID, qty int) (*AddResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "Add",
		telemetry.SpanAttrProductID, productID.String(),
		telemetry.SpanAttrQuantity, qty)
	defer span.End()

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	newQty := c.Add(product.ID, qty)
	return &AddResult{
		ProductID:   product.ID,
		ProductName: product.Name,
		Qty:         newQty,
		CartSize:    c.Size(),
	}, nil
}

// ApplyUpdates sets the quantities of several products. Entries with a
// malformed product id are skipped; quantities below one remove the
// product.
func (s *Service) ApplyUpdates(ctx context.Context, c *cart.Cart, updates []Update) (*UpdateResult, error) {
	for _, u := range updates {
		pid, err := uuid.Parse(strings.TrimSpace(u.ProductID))
		if err != nil {
			continue
		}
		c.Set(pid, max(0, u.Qty))
	}

	lines, total, err := s.lines(ctx, c)
	if err != nil {
		return nil, err
	}
	result := &UpdateResult{
		Total:    total,
		Lines:    make(map[string]decimal.Decimal, len(lines)),
		CartSize: c.Size(),
	}
	for _, l := range lines {
		result.Lines[l.Product.ID.String()] = l.LineTotal.Round(2)
	}
	return result, nil
}

// Replace rebuilds the cart from form quantities keyed by product id.
// Values that are not positive integers drop the product.
func (s *Service) Replace(c *cart.Cart, quantities map[string]string) {
	c.Clear()
	for key, raw := range quantities {
		pid, err := uuid.Parse(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || qty <= 0 {
			continue
		}
		c.Set(pid, qty)
	}
}

func (s *Service) lines(ctx context.Context, c *cart.Cart) ([]cart.Line, decimal.Decimal, error) {
	ids := c.ProductIDs()
	if len(ids) == 0 {
		return nil, decimal.Zero, nil
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	lines, total := c.Lines(products)
	return lines, total, nil
}

// Package cart holds the session-backed shopping cart.
package cart

import (
	"sort"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart maps product ids to positive quantities. The zero value is an
// empty cart ready to use.
type Cart struct {
	Items map[string]int `json:"items,omitempty"`
}

// Line is a cart row joined with its product
type Line struct {
	Product   catalog.Product
	Qty       int
	LineTotal decimal.Decimal
}

// Add increases the quantity of pid by qty, treating anything below 1
// as 1. It returns the new quantity.
func (c *Cart) Add(pid uuid.UUID, qty int) int {
	if qty < 1 {
		qty = 1
	}
	c.ensure()
	key := pid.String()
	c.Items[key] += qty
	return c.Items[key]
}

// Set replaces the quantity of pid. Zero removes the product; negative
// quantities are ignored.
func (c *Cart) Set(pid uuid.UUID, qty int) {
	switch {
	case qty > 0:
		c.ensure()
		c.Items[pid.String()] = qty
	case qty == 0:
		c.Remove(pid)
	}
}

// Remove drops pid from the cart
func (c *Cart) Remove(pid uuid.UUID) {
	delete(c.Items, pid.String())
}

// Quantity returns the quantity of pid
func (c *Cart) Quantity(pid uuid.UUID) int {
	return c.Items[pid.String()]
}

// Size returns the number of distinct products in the cart
func (c *Cart) Size() int {
	n := 0
	for _, q := range c.Items {
		if q > 0 {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the cart holds nothing
func (c *Cart) IsEmpty() bool {
	return c.Size() == 0
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = nil
}

// ProductIDs returns the ids of products in the cart. Keys that are not
// valid UUIDs are skipped.
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for key, q := range c.Items {
		if q <= 0 {
			continue
		}
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Lines joins the cart with products and computes the total. Products
// missing from the slice are skipped. Rows keep the order of products.
func (c *Cart) Lines(products []catalog.Product) ([]Line, decimal.Decimal) {
	lines := make([]Line, 0, len(products))
	total := decimal.Zero
	for _, p := range products {
		qty := c.Quantity(p.ID)
		if qty <= 0 {
			continue
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		lines = append(lines, Line{Product: p, Qty: qty, LineTotal: lineTotal})
		total = total.Add(lineTotal)
	}
	return lines, total.Round(2)
}

func (c *Cart) ensure() {
	if c.Items == nil {
		c.Items = make(map[string]int)
	}
}

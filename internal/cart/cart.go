// Package cart accumulates the products of an in-progress sale.
package cart

import (
	"veira-pos/internal/models"

	"github.com/shopspring/decimal"
)

// Cart holds CartItems by value. Stock is not checked here; overselling is
// absorbed by the catalog's clamp at zero.
type Cart struct {
	items []models.CartItem
}

// New creates an empty cart
func New() *Cart {
	return &Cart{}
}

// AddItem adds one unit of product, snapshotting its fields on first add
func (c *Cart) AddItem(p models.Product) {
	for i := range c.items {
		if c.items[i].ID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, models.CartItem{Product: p, Quantity: 1})
}

// AdjustQuantity applies delta to the item's quantity, flooring at zero.
// An item that reaches zero leaves the cart.
func (c *Cart) AdjustQuantity(id string, delta int) error {
	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}
		q := c.items[i].Quantity + delta
		if q <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
		c.items[i].Quantity = q
		return nil
	}
	return models.NewNotFoundError("cart item", id)
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the cart lines
func (c *Cart) Items() []models.CartItem {
	return append([]models.CartItem(nil), c.items...)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Subtotal is the sum of price x quantity
func (c *Cart) Subtotal() decimal.Decimal {
	return Subtotal(c.items)
}

// CostOfGoods is the sum of cost x quantity
func (c *Cart) CostOfGoods() decimal.Decimal {
	return CostOfGoods(c.items)
}

// Subtotal sums price x quantity over items
func Subtotal(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// CostOfGoods sums cost x quantity over items
func CostOfGoods(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineCost())
	}
	return sum
}

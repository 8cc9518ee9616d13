// Package catalog holds the set of sellable products and their stock levels.
//
// Catalog is not safe for concurrent use. The owning controller serializes
// access so a checkout can update stock and the ledger under one lock.
package catalog

import (
	"strings"

	"veira-pos/internal/models"

	"github.com/google/uuid"
)

// Catalog keeps products in insertion order
type Catalog struct {
	products []models.Product
	index    map[string]int
}

// New creates a catalog seeded with products, skipping duplicate ids
func New(products []models.Product) *Catalog {
	c := &Catalog{index: make(map[string]int, len(products))}
	for _, p := range products {
		if _, exists := c.index[p.ID]; exists {
			continue
		}
		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// Add inserts a product. An empty id is assigned a fresh uuid.
func (c *Catalog) Add(p models.Product) (models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := validate(p); err != nil {
		return models.Product{}, err
	}
	if _, exists := c.index[p.ID]; exists {
		return models.Product{}, models.NewValidationError("id", "product "+p.ID+" already exists")
	}

	c.index[p.ID] = len(c.products)
	c.products = append(c.products, p)
	return p, nil
}

// Update replaces the product with the same id
func (c *Catalog) Update(p models.Product) error {
	i, ok := c.index[p.ID]
	if !ok {
		return models.NewNotFoundError("product", p.ID)
	}
	if err := validate(p); err != nil {
		return err
	}
	c.products[i] = p
	return nil
}

// Remove deletes a product by id. Removing an unknown id is a no-op and
// reports false, so repeated deletes are safe.
func (c *Catalog) Remove(id string) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.products = append(c.products[:i], c.products[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.products); j++ {
		c.index[c.products[j].ID] = j
	}
	return true
}

// DecrementStock reduces stock by quantity, clamping at zero. Overselling is
// not rejected; clamped reports whether the request exceeded current stock.
// Non-positive quantities leave stock untouched.
func (c *Catalog) DecrementStock(id string, quantity int) (remaining int, clamped bool, err error) {
	i, ok := c.index[id]
	if !ok {
		return 0, false, models.NewNotFoundError("product", id)
	}
	p := &c.products[i]
	if quantity <= 0 {
		return p.Stock, false, nil
	}
	if quantity > p.Stock {
		p.Stock = 0
		return 0, true, nil
	}
	p.Stock -= quantity
	return p.Stock, false, nil
}

// Get returns a copy of the product with the given id
func (c *Catalog) Get(id string) (models.Product, error) {
	i, ok := c.index[id]
	if !ok {
		return models.Product{}, models.NewNotFoundError("product", id)
	}
	return c.products[i], nil
}

// Search matches term case-insensitively against product names, optionally
// restricted to one category. Results keep catalog order.
func (c *Catalog) Search(term string, category *models.Category) []models.Product {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		if category != nil && p.Category != *category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// List returns a copy of all products in catalog order
func (c *Catalog) List() []models.Product {
	return append([]models.Product(nil), c.products...)
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.products)
}

func validate(p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return models.NewValidationError("name", "must not be empty")
	}
	if p.Price.IsNegative() {
		return models.NewValidationError("price", "must not be negative")
	}
	if p.Cost.IsNegative() {
		return models.NewValidationError("cost", "must not be negative")
	}
	if p.Stock < 0 {
		return models.NewValidationError("stock", "must not be negative")
	}
	if !p.Category.Valid() {
		return models.NewValidationError("category", "unknown category")
	}
	return nil
}

package service

import (
	"context"

	"veira-pos/internal/models"
	"veira-pos/internal/pricing"
	"veira-pos/internal/report"
	"veira-pos/internal/util"

	"go.uber.org/zap"
)

// CartView is the open cart priced at the current VAT rate
type CartView struct {
	Items  []models.CartItem `json:"items"`
	Totals models.Totals     `json:"totals"`
}

func (s *POSService) requireLocked(allowed func(models.UserRole) bool) error {
	if !allowed(s.settings.UserRole) {
		return models.ErrForbidden
	}
	return nil
}

// ListProducts searches the catalog by name and optional category
func (s *POSService) ListProducts(ctx context.Context, term string, category *models.Category) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Search(term, category)
}

// GetProduct returns one product
func (s *POSService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Get(id)
}

// AddProduct inserts a product, assigning an id when none is given
func (s *POSService) AddProduct(ctx context.Context, p models.Product) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "POSService.AddProduct")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(models.UserRole.CanEditCatalog); err != nil {
		return models.Product{}, err
	}
	added, err := s.catalog.Add(p)
	if err != nil {
		return models.Product{}, err
	}

	util.CatalogMutationsTotal.WithLabelValues("add").Inc()
	s.logger.Info("Product added", zap.String("product_id", added.ID), zap.String("name", added.Name))
	s.persistLocked(ctx)
	return added, nil
}

// UpdateProduct replaces a product. The stored cost is kept when costSet is
// false or the active role may not see costs. Cart lines keep the snapshot
// taken when they were added.
func (s *POSService) UpdateProduct(ctx context.Context, p models.Product, costSet bool) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "POSService.UpdateProduct")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(models.UserRole.CanEditCatalog); err != nil {
		return models.Product{}, err
	}
	if !costSet || !s.settings.UserRole.CanSeeCost() {
		current, err := s.catalog.Get(p.ID)
		if err != nil {
			return models.Product{}, err
		}
		p.Cost = current.Cost
	}
	if err := s.catalog.Update(p); err != nil {
		return models.Product{}, err
	}

	util.CatalogMutationsTotal.WithLabelValues("update").Inc()
	s.persistLocked(ctx)
	return p, nil
}

// RemoveProduct deletes a product. Removing an unknown id succeeds and
// reports false. Historical transactions are untouched.
func (s *POSService) RemoveProduct(ctx context.Context, id string) (bool, error) {
	ctx, span := util.StartSpan(ctx, "POSService.RemoveProduct")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(models.UserRole.CanEditCatalog); err != nil {
		return false, err
	}
	if !s.catalog.Remove(id) {
		return false, nil
	}

	util.CatalogMutationsTotal.WithLabelValues("remove").Inc()
	s.logger.Info("Product removed", zap.String("product_id", id))
	s.persistLocked(ctx)
	return true, nil
}

// LowStock lists products under threshold; a non-positive threshold uses the
// configured default
func (s *POSService) LowStock(ctx context.Context, threshold int) []models.Product {
	if threshold <= 0 {
		threshold = s.opts.LowStockThreshold
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.LowStock(s.catalog.List(), threshold)
}

// RegulatedItems lists products subject to extra tax scrutiny
func (s *POSService) RegulatedItems(ctx context.Context) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.RegulatedItems(s.catalog.List())
}

func (s *POSService) cartViewLocked() (CartView, error) {
	items := s.cart.Items()
	totals, err := pricing.ComputeTotals(items, s.settings.VATRate)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Items: items, Totals: totals}, nil
}

// Cart returns the open cart
func (s *POSService) Cart(ctx context.Context) (CartView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cartViewLocked()
}

// AddToCart adds one unit of a catalog product. Stock is not checked.
func (s *POSService) AddToCart(ctx context.Context, productID string) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(models.UserRole.CanSell); err != nil {
		return CartView{}, err
	}
	p, err := s.catalog.Get(productID)
	if err != nil {
		return CartView{}, err
	}
	s.cart.AddItem(p)
	return s.cartViewLocked()
}

// AdjustCartItem changes a line's quantity by delta, dropping it at zero
func (s *POSService) AdjustCartItem(ctx context.Context, productID string, delta int) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(models.UserRole.CanSell); err != nil {
		return CartView{}, err
	}
	if err := s.cart.AdjustQuantity(productID, delta); err != nil {
		return CartView{}, err
	}
	return s.cartViewLocked()
}

// ClearCart empties the open cart
func (s *POSService) ClearCart(ctx context.Context) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(models.UserRole.CanSell); err != nil {
		return CartView{}, err
	}
	s.cart.Clear()
	return s.cartViewLocked()
}

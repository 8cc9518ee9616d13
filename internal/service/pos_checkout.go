package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veira-pos/internal/broker"
	"veira-pos/internal/ledger"
	"veira-pos/internal/models"
	"veira-pos/internal/util"

	"go.uber.org/zap"
)

// CheckoutResult is a committed sale. Replayed is set when an earlier
// checkout with the same idempotency key is returned instead.
type CheckoutResult struct {
	Transaction models.Transaction   `json:"transaction"`
	Stock       []ledger.StockChange `json:"stock"`
	Replayed    bool                 `json:"replayed"`
}

// Checkout turns the open cart into a transaction. Recording the sale,
// decrementing stock and clearing the cart happen under one lock; any
// validation failure leaves ledger, catalog and cart untouched.
func (s *POSService) Checkout(ctx context.Context, method models.PaymentMethod, idempotencyKey string) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "POSService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() { util.CheckoutLatency.Observe(time.Since(start).Seconds()) }()

	s.mu.RLock()
	err := s.requireLocked(models.UserRole.CanSell)
	s.mu.RUnlock()
	if err != nil {
		util.SpanError(span, err)
		util.CheckoutFailedTotal.WithLabelValues("forbidden").Inc()
		return nil, err
	}

	if idempotencyKey != "" {
		if prior, err := s.replay(ctx, idempotencyKey); err != nil || prior != nil {
			return prior, err
		}
	}

	if s.opts.CheckoutDelay > 0 {
		select {
		case <-ctx.Done():
			util.CheckoutFailedTotal.WithLabelValues("cancelled").Inc()
			return nil, ctx.Err()
		case <-time.After(s.opts.CheckoutDelay):
		}
	}
	if err := ctx.Err(); err != nil {
		util.CheckoutFailedTotal.WithLabelValues("cancelled").Inc()
		return nil, err
	}

	s.mu.Lock()
	if err := s.requireLocked(models.UserRole.CanSell); err != nil {
		s.mu.Unlock()
		util.SpanError(span, err)
		util.CheckoutFailedTotal.WithLabelValues("forbidden").Inc()
		return nil, err
	}

	before := make(map[string]int)
	for _, it := range s.cart.Items() {
		if p, err := s.catalog.Get(it.ID); err == nil {
			before[it.ID] = p.Stock
		}
	}

	receipt, err := s.ledger.Complete(s.cart, method, s.settings.VATRate, s.catalog)
	if err != nil {
		s.mu.Unlock()
		util.SpanError(span, err)
		util.CheckoutFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	s.persistLocked(ctx)
	lowStock := s.lowStockEventsLocked(receipt, before)
	s.mu.Unlock()

	tx := receipt.Transaction
	for _, ch := range receipt.Stock {
		switch {
		case ch.Missing:
			s.logger.Warn("Sold product no longer in catalog", zap.String("transaction_id", tx.ID), zap.String("product_id", ch.ProductID))
		case ch.Clamped:
			util.StockOversellClampedTotal.Inc()
			s.logger.Warn("Stock oversold, clamped at zero", zap.String("transaction_id", tx.ID), zap.String("product_id", ch.ProductID))
		}
	}

	util.SalesCompletedTotal.WithLabelValues(tx.PaymentMethod.String()).Inc()
	util.SalesRevenueTotal.Add(tx.Total.InexactFloat64())
	s.logger.Info("Sale completed",
		zap.String("transaction_id", tx.ID),
		zap.String("total", tx.Total.StringFixed(2)),
		zap.String("method", tx.PaymentMethod.String()),
		zap.Int("lines", len(tx.Items)))

	if idempotencyKey != "" {
		if err := s.store.RememberCheckout(ctx, idempotencyKey, tx.ID, s.opts.CheckoutKeyTTL); err != nil {
			s.logger.Warn("Failed to store checkout key", zap.String("key", idempotencyKey), zap.Error(err))
		}
	}

	s.publishSale(ctx, tx, lowStock)

	return &CheckoutResult{Transaction: tx, Stock: receipt.Stock}, nil
}

func (s *POSService) replay(ctx context.Context, key string) (*CheckoutResult, error) {
	txID, found, err := s.store.LookupCheckout(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if !found {
		return nil, nil
	}

	s.mu.RLock()
	tx, err := s.ledger.Get(txID)
	s.mu.RUnlock()
	if err != nil {
		// key outlived its transaction, e.g. after a reseed
		s.logger.Warn("Checkout key points at unknown transaction", zap.String("key", key), zap.String("transaction_id", txID))
		return nil, nil
	}

	s.logger.Info("Duplicate checkout request detected", zap.String("key", key), zap.String("transaction_id", txID))
	return &CheckoutResult{Transaction: tx, Replayed: true}, nil
}

// lowStockEventsLocked returns one event per product that crossed under the
// threshold during this sale
func (s *POSService) lowStockEventsLocked(receipt *ledger.Receipt, before map[string]int) []*models.StockLowEvent {
	threshold := s.opts.LowStockThreshold
	now := s.opts.Now()

	var events []*models.StockLowEvent
	for _, ch := range receipt.Stock {
		prev, ok := before[ch.ProductID]
		if ch.Missing || !ok || prev < threshold || ch.Remaining >= threshold {
			continue
		}
		p, err := s.catalog.Get(ch.ProductID)
		if err != nil {
			continue
		}
		events = append(events, &models.StockLowEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeStockLow, now),
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     ch.Remaining,
			Threshold: threshold,
		})
	}
	return events
}

func (s *POSService) publishSale(ctx context.Context, tx models.Transaction, lowStock []*models.StockLowEvent) {
	if s.publisher == nil {
		return
	}

	items := make([]models.SaleItemData, 0, len(tx.Items))
	for _, it := range tx.Items {
		items = append(items, models.SaleItemData{ProductID: it.ID, Quantity: it.Quantity, UnitPrice: it.Price})
	}
	sale := &models.SaleCompletedEvent{
		BaseEvent:     broker.NewBaseEvent(models.EventTypeSaleCompleted, models.TimeOf(tx.Timestamp)),
		TransactionID: tx.ID,
		Total:         tx.Total,
		VAT:           tx.VAT,
		CostOfGoods:   tx.CostOfGoods,
		PaymentMethod: tx.PaymentMethod,
		Items:         items,
	}

	if err := s.publisher.PublishSaleCompleted(ctx, sale); err != nil {
		util.EventsPublishedTotal.WithLabelValues(models.EventTypeSaleCompleted, "error").Inc()
		s.logger.Error("Failed to publish sale event", zap.String("transaction_id", tx.ID), zap.Error(err))
	} else {
		util.EventsPublishedTotal.WithLabelValues(models.EventTypeSaleCompleted, "ok").Inc()
	}

	for _, ev := range lowStock {
		if err := s.publisher.PublishStockLow(ctx, ev); err != nil {
			util.EventsPublishedTotal.WithLabelValues(models.EventTypeStockLow, "error").Inc()
			s.logger.Error("Failed to publish stock low event", zap.String("product_id", ev.ProductID), zap.Error(err))
			continue
		}
		util.EventsPublishedTotal.WithLabelValues(models.EventTypeStockLow, "ok").Inc()
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrEmptyCart):
		return "empty_cart"
	case models.IsValidation(err):
		return "validation"
	}
	return "internal"
}

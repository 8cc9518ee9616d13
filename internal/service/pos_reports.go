package service

import (
	"context"

	"veira-pos/internal/anomaly"
	"veira-pos/internal/ledger"
	"veira-pos/internal/models"
	"veira-pos/internal/report"
	"veira-pos/internal/util"

	"github.com/shopspring/decimal"
)

// MaxReportDays bounds the daily series
const MaxReportDays = 366

// Transactions lists the ledger newest first
func (s *POSService) Transactions(ctx context.Context, filter ledger.Filter) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.List(filter)
}

// Transaction returns one transaction
func (s *POSService) Transaction(ctx context.Context, id string) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Get(id)
}

// Audit classifies every transaction retroactively. Stored anomalies are kept;
// clean records are checked for variance and below-cost lines.
func (s *POSService) Audit(ctx context.Context) ([]models.Transaction, error) {
	_, span := util.StartSpan(ctx, "POSService.Audit")
	defer span.End()

	s.mu.RLock()
	role := s.settings.UserRole
	txs := s.ledger.List(ledger.FilterAll)
	s.mu.RUnlock()

	if !role.CanSeeAllMoney() {
		return nil, models.ErrForbidden
	}

	counts := map[models.AnomalyKind]int{}
	out := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = anomaly.Annotate(tx)
		if out[i].IsAnomaly() {
			counts[out[i].Anomaly.Kind]++
		}
	}
	for _, kind := range []models.AnomalyKind{models.AnomalyVariance, models.AnomalyUnauthorizedOverride} {
		util.AnomaliesFlagged.WithLabelValues(kind.String()).Set(float64(counts[kind]))
	}
	return out, nil
}

// Totals sums the whole ledger
func (s *POSService) Totals(ctx context.Context) report.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.ComputeTotals(s.ledger.Snapshot())
}

// PaymentMethods groups revenue by tender
func (s *POSService) PaymentMethods(ctx context.Context) []report.MethodTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.ByPaymentMethod(s.ledger.Snapshot())
}

// Daily returns per-day revenue and profit for the last days days
func (s *POSService) Daily(ctx context.Context, days int) ([]models.DailyTotal, error) {
	if days < 1 || days > MaxReportDays {
		return nil, models.NewValidationError("days", "must be between 1 and 366")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.AggregateByDay(s.opts.Now(), days), nil
}

// InventoryValuation is stock x cost over the catalog
func (s *POSService) InventoryValuation(ctx context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.settings.UserRole.CanSeeCost() {
		return decimal.Zero, models.ErrForbidden
	}
	return report.InventoryValuation(s.catalog.List()), nil
}

type exportSnapshot struct {
	products []models.Product
	txs      []models.Transaction
	settings models.Settings
}

func (s *POSService) exportSnapshot() (exportSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.settings.UserRole.CanSeeAllMoney() {
		return exportSnapshot{}, models.ErrForbidden
	}
	return exportSnapshot{products: s.catalog.List(), txs: s.ledger.Snapshot(), settings: s.settings}, nil
}

// SalesCSV exports the ledger
func (s *POSService) SalesCSV(ctx context.Context) ([]byte, error) {
	_, span := util.StartSpan(ctx, "POSService.SalesCSV")
	defer span.End()

	snap, err := s.exportSnapshot()
	if err != nil {
		return nil, err
	}
	return report.SalesCSV(snap.txs)
}

// TaxReport exports the e-TIMS text pack
func (s *POSService) TaxReport(ctx context.Context) ([]byte, error) {
	_, span := util.StartSpan(ctx, "POSService.TaxReport")
	defer span.End()

	snap, err := s.exportSnapshot()
	if err != nil {
		return nil, err
	}
	return report.TaxReport(snap.txs, snap.settings.KRAPin, s.opts.Now()), nil
}

// AuditPack exports the business report
func (s *POSService) AuditPack(ctx context.Context) ([]byte, error) {
	_, span := util.StartSpan(ctx, "POSService.AuditPack")
	defer span.End()

	snap, err := s.exportSnapshot()
	if err != nil {
		return nil, err
	}
	return report.AuditPack(report.AuditInput{
		BusinessName: snap.settings.BusinessName,
		Role:         snap.settings.UserRole,
		VATRate:      snap.settings.VATRate,
		Products:     snap.products,
		Transactions: snap.txs,
		GeneratedAt:  s.opts.Now(),
	})
}

// AssistantContext returns the read-only summary and settings sent to the
// assistant
func (s *POSService) AssistantContext(ctx context.Context) (report.Summary, models.Settings) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.Summarize(s.catalog.List(), s.ledger.Snapshot(), s.opts.LowStockThreshold), s.settings
}

// Package anomaly flags irregular transactions for audit review.
package anomaly

import (
	"fmt"

	"veira-pos/internal/cart"
	"veira-pos/internal/models"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest difference between recorded and computed totals
// still treated as a match.
var Tolerance = decimal.New(5, -3)

const overrideReason = "Price Override: Cashier applied unauthorized discount below floor price."

// Variance builds the anomaly for a tender that does not match the computed total
func Variance(calculated, recorded decimal.Decimal) *models.Anomaly {
	return &models.Anomaly{
		Kind: models.AnomalyVariance,
		Reason: fmt.Sprintf("Variance Detected: Calculated total (KES %s) does not match recorded tender (KES %s)",
			calculated.StringFixed(0), recorded.StringFixed(0)),
	}
}

// Override builds the anomaly for a sale below the price floor without authorization
func Override() *models.Anomaly {
	return &models.Anomaly{Kind: models.AnomalyUnauthorizedOverride, Reason: overrideReason}
}

// Classify inspects a transaction and returns at most one anomaly.
// Variance takes precedence over a price override.
func Classify(t models.Transaction) *models.Anomaly {
	calculated := cart.Subtotal(t.Items).Add(t.VAT)
	if t.Total.Sub(calculated).Abs().GreaterThan(Tolerance) {
		return Variance(calculated, t.Total)
	}
	for _, it := range t.Items {
		if it.Price.LessThan(it.Cost) {
			return Override()
		}
	}
	return nil
}

// Annotate returns a copy of t carrying its classification. An anomaly already
// recorded on t is kept as is.
func Annotate(t models.Transaction) models.Transaction {
	out := t.Clone()
	if out.Anomaly == nil {
		out.Anomaly = Classify(t)
	}
	return out
}

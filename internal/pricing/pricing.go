// Package pricing computes cart totals at a tax rate.
package pricing

import (
	"veira-pos/internal/cart"
	"veira-pos/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotals prices items at taxRatePercent. The rate must be non-negative;
// there is no upper bound. No rounding is applied.
func ComputeTotals(items []models.CartItem, taxRatePercent decimal.Decimal) (models.Totals, error) {
	if taxRatePercent.IsNegative() {
		return models.Totals{}, models.NewValidationError("tax rate", "must not be negative")
	}

	subtotal := cart.Subtotal(items)
	tax := Tax(subtotal, taxRatePercent)
	return models.Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		Total:       subtotal.Add(tax),
		CostOfGoods: cart.CostOfGoods(items),
	}, nil
}

// Tax returns subtotal x rate / 100
func Tax(subtotal, taxRatePercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRatePercent).Div(hundred)
}

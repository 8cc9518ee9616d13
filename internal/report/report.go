// Package report derives read-only rollups from catalog and ledger snapshots.
package report

import (
	"strings"

	"veira-pos/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold matches the dashboard alert level
const DefaultLowStockThreshold = 10

var hundred = decimal.NewFromInt(100)

// Totals is the money summary of a ledger snapshot
type Totals struct {
	Revenue     decimal.Decimal `json:"revenue"`
	CostOfGoods decimal.Decimal `json:"costOfGoods"`
	Tax         decimal.Decimal `json:"tax"`
	GrossProfit decimal.Decimal `json:"grossProfit"`
	MarginPct   decimal.Decimal `json:"marginPct"`
	Count       int             `json:"count"`
}

// MethodTotal is revenue for one payment method
type MethodTotal struct {
	Method  models.PaymentMethod `json:"method"`
	Revenue decimal.Decimal      `json:"revenue"`
	Count   int                  `json:"count"`
}

// Summary is the context payload handed to the remote assistant
type Summary struct {
	Revenue      decimal.Decimal `json:"revenue"`
	CostOfGoods  decimal.Decimal `json:"costOfGoods"`
	Tax          decimal.Decimal `json:"tax"`
	Transactions int             `json:"transactions"`
	Anomalies    int             `json:"anomalies"`
	LowStock     int             `json:"lowStock"`
}

// ComputeTotals sums revenue, cost and tax. Margin is zero when revenue is zero.
func ComputeTotals(txs []models.Transaction) Totals {
	t := Totals{Revenue: decimal.Zero, CostOfGoods: decimal.Zero, Tax: decimal.Zero, MarginPct: decimal.Zero}
	for _, tx := range txs {
		t.Revenue = t.Revenue.Add(tx.Total)
		t.CostOfGoods = t.CostOfGoods.Add(tx.CostOfGoods)
		t.Tax = t.Tax.Add(tx.VAT)
	}
	t.Count = len(txs)
	t.GrossProfit = t.Revenue.Sub(t.CostOfGoods)
	if !t.Revenue.IsZero() {
		t.MarginPct = t.GrossProfit.Div(t.Revenue).Mul(hundred)
	}
	return t
}

// ByPaymentMethod groups revenue by tender. Every method is present, in
// declaration order.
func ByPaymentMethod(txs []models.Transaction) []MethodTotal {
	methods := models.PaymentMethods()
	out := make([]MethodTotal, len(methods))
	for i, m := range methods {
		out[i] = MethodTotal{Method: m, Revenue: decimal.Zero}
	}
	for _, tx := range txs {
		i := int(tx.PaymentMethod)
		if i < 0 || i >= len(out) {
			continue
		}
		out[i].Revenue = out[i].Revenue.Add(tx.Total)
		out[i].Count++
	}
	return out
}

// InventoryValuation is the sum of stock x cost at this moment
func InventoryValuation(products []models.Product) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range products {
		sum = sum.Add(p.Cost.Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	return sum
}

// LowStock returns products whose stock is below threshold, in catalog order
func LowStock(products []models.Product, threshold int) []models.Product {
	out := []models.Product{}
	for _, p := range products {
		if p.Stock < threshold {
			out = append(out, p)
		}
	}
	return out
}

// RegulatedItems returns products subject to extra tax scrutiny: household
// goods and gas
func RegulatedItems(products []models.Product) []models.Product {
	out := []models.Product{}
	for _, p := range products {
		if p.Category == models.CategoryHousehold || strings.Contains(p.Name, "Gas") {
			out = append(out, p)
		}
	}
	return out
}

// CountAnomalies counts flagged transactions
func CountAnomalies(txs []models.Transaction) int {
	n := 0
	for _, tx := range txs {
		if tx.IsAnomaly() {
			n++
		}
	}
	return n
}

// Flagged returns flagged transactions in the given order
func Flagged(txs []models.Transaction) []models.Transaction {
	out := []models.Transaction{}
	for _, tx := range txs {
		if tx.IsAnomaly() {
			out = append(out, tx)
		}
	}
	return out
}

// Summarize builds the assistant context payload
func Summarize(products []models.Product, txs []models.Transaction, lowStockThreshold int) Summary {
	t := ComputeTotals(txs)
	return Summary{
		Revenue:      t.Revenue,
		CostOfGoods:  t.CostOfGoods,
		Tax:          t.Tax,
		Transactions: t.Count,
		Anomalies:    CountAnomalies(txs),
		LowStock:     len(LowStock(products, lowStockThreshold)),
	}
}

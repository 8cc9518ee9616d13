// Package seed builds the default catalog and a synthetic sales history used
// when no saved state can be loaded.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"veira-pos/internal/anomaly"
	"veira-pos/internal/ledger"
	"veira-pos/internal/models"
	"veira-pos/internal/pricing"

	"github.com/shopspring/decimal"
)

const (
	// Days of history generated
	Days = 14
	// AnomalyEvery marks one sale in this many as anomalous
	AnomalyEvery = 15
)

var varianceExtra = decimal.NewFromInt(450)

// Products returns the default catalog
func Products() []models.Product {
	p := func(id, name string, price, cost int64, stock int, cat models.Category, img string) models.Product {
		return models.Product{
			ID:       id,
			Name:     name,
			Price:    decimal.NewFromInt(price),
			Cost:     decimal.NewFromInt(cost),
			Stock:    stock,
			Category: cat,
			ImageURL: "https://images.unsplash.com/" + img + "?auto=format&fit=crop&w=200&q=80",
		}
	}
	return []models.Product{
		p("1", "Jogoo Maize Flour 2kg", 210, 185, 45, models.CategoryFood, "photo-1586201375761-83865001e31c"),
		p("2", "Broadways Bread 400g", 65, 52, 20, models.CategoryFood, "photo-1509440159596-0249088772ff"),
		p("3", "Brookside Milk 500ml", 60, 48, 35, models.CategoryFood, "photo-1550583724-125581cc25fb"),
		p("4", "Kasuku Gas Refill 6kg", 1200, 980, 8, models.CategoryHousehold, "photo-1581092160562-40aa08e78837"),
		p("5", "Mumias Sugar 1kg", 180, 155, 15, models.CategoryFood, "photo-1581447100595-377319e45738"),
		p("6", "Safaricom Airtime 1000", 1000, 950, 100, models.CategoryServices, "photo-1563013544-824ae1b704d3"),
		p("7", "Menengai Soap 800g", 150, 120, 30, models.CategoryHousehold, "photo-1605264964528-06403738d6dc"),
		p("8", "Indomie Chicken 5-pack", 250, 210, 25, models.CategoryFood, "photo-1612929633738-8fe44f7ec841"),
	}
}

// Transactions generates Days days of sales ending at now. Every sale
// (day+index) % AnomalyEvery == 0 is flagged, alternating between variance
// (even index) and unauthorized override (odd index). Stock is not touched.
// A negative tax rate yields no history.
func Transactions(products []models.Product, now time.Time, rng *rand.Rand, taxRatePercent decimal.Decimal) []models.Transaction {
	if len(products) == 0 {
		return []models.Transaction{}
	}

	const dayMs = int64(24 * time.Hour / time.Millisecond)
	methods := models.PaymentMethods()
	nowMs := now.UnixMilli()
	txs := make([]models.Transaction, 0, Days*14)

	for day := 0; day < Days; day++ {
		anchor := nowMs - int64(day)*dayMs
		sales := 8 + rng.Intn(12)

		for sale := 0; sale < sales; sale++ {
			ts := anchor - int64(rng.Float64()*float64(dayMs)*0.8)

			picked := rng.Perm(len(products))[:1+rng.Intn(min(4, len(products)))]
			items := make([]models.CartItem, 0, len(picked))
			for _, idx := range picked {
				items = append(items, models.CartItem{Product: products[idx], Quantity: 1 + rng.Intn(3)})
			}

			totals, err := pricing.ComputeTotals(items, taxRatePercent)
			if err != nil {
				return []models.Transaction{}
			}
			tx := models.Transaction{
				ID:            fmt.Sprintf("VRA-%02d%02d-%03d", day, sale, rng.Intn(999)),
				Timestamp:     ts,
				Items:         items,
				Subtotal:      totals.Subtotal,
				TaxRate:       taxRatePercent,
				Total:         totals.Total,
				VAT:           totals.Tax,
				CostOfGoods:   totals.CostOfGoods,
				PaymentMethod: methods[rng.Intn(len(methods))],
			}

			if (day+sale)%AnomalyEvery == 0 {
				if sale%2 == 0 {
					tx.Total = totals.Total.Add(varianceExtra)
					tx.Anomaly = anomaly.Variance(totals.Total, tx.Total)
				} else {
					tx.Anomaly = anomaly.Override()
				}
			}

			txs = append(txs, tx)
		}
	}

	ledger.SortNewestFirst(txs)
	return txs
}

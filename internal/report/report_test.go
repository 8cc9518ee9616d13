package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"veira-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		{
			ID:            "VRA-B",
			Timestamp:     generatedAt.Add(-time.Hour).UnixMilli(),
			Subtotal:      d("485"),
			Total:         d("562.6"),
			VAT:           d("77.6"),
			CostOfGoods:   d("422"),
			PaymentMethod: models.PaymentMpesa,
		},
		{
			ID:            "VRA-A",
			Timestamp:     generatedAt.Add(-time.Hour).UnixMilli(),
			Subtotal:      d("100"),
			Total:         d("566"),
			VAT:           d("16"),
			CostOfGoods:   d("80"),
			PaymentMethod: models.PaymentCash,
			Anomaly:       &models.Anomaly{Kind: models.AnomalyVariance, Reason: "Variance, with comma"},
		},
		{
			ID:            "VRA-C",
			Timestamp:     generatedAt.Add(-26 * time.Hour).UnixMilli(),
			Subtotal:      d("60"),
			Total:         d("69.6"),
			VAT:           d("9.6"),
			CostOfGoods:   d("48"),
			PaymentMethod: models.PaymentMpesa,
		},
	}
}

func sampleProducts() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Maize Flour", Price: d("210"), Cost: d("185"), Stock: 45, Category: models.CategoryFood},
		{ID: "4", Name: "Kasuku Gas Refill 6kg", Price: d("1200"), Cost: d("980"), Stock: 8, Category: models.CategoryHousehold},
		{ID: "6", Name: "Airtime", Price: d("1000"), Cost: d("950"), Stock: 0, Category: models.CategoryServices},
		{ID: "9", Name: "Camping Gas", Price: d("500"), Cost: d("400"), Stock: 12, Category: models.CategoryOther},
	}
}

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals(sampleTransactions())
	assert.Equal(t, "1198.2", totals.Revenue.String())
	assert.Equal(t, "550", totals.CostOfGoods.String())
	assert.Equal(t, "103.2", totals.Tax.String())
	assert.Equal(t, "648.2", totals.GrossProfit.String())
	assert.Equal(t, 3, totals.Count)
	assert.True(t, totals.MarginPct.GreaterThan(decimal.Zero))
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil)
	assert.True(t, totals.Revenue.IsZero())
	assert.True(t, totals.MarginPct.IsZero())
	assert.Equal(t, 0, totals.Count)
}

func TestByPaymentMethodListsEveryMethod(t *testing.T) {
	rows := ByPaymentMethod(sampleTransactions())
	require.Len(t, rows, 3)
	assert.Equal(t, models.PaymentCash, rows[0].Method)
	assert.Equal(t, "566", rows[0].Revenue.String())
	assert.Equal(t, models.PaymentMpesa, rows[1].Method)
	assert.Equal(t, "632.2", rows[1].Revenue.String())
	assert.Equal(t, 2, rows[1].Count)
	assert.Equal(t, models.PaymentCard, rows[2].Method)
	assert.True(t, rows[2].Revenue.IsZero())
}

func TestInventoryValuation(t *testing.T) {
	// 45*185 + 8*980 + 0*950 + 12*400
	assert.Equal(t, "20965", InventoryValuation(sampleProducts()).String())
	assert.True(t, InventoryValuation(nil).IsZero())
}

func TestLowStockAndRegulated(t *testing.T) {
	low := LowStock(sampleProducts(), DefaultLowStockThreshold)
	require.Len(t, low, 2)
	assert.Equal(t, "4", low[0].ID)
	assert.Equal(t, "6", low[1].ID)

	regulated := RegulatedItems(sampleProducts())
	require.Len(t, regulated, 2)
	assert.Equal(t, "4", regulated[0].ID)
	assert.Equal(t, "9", regulated[1].ID)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleProducts(), sampleTransactions(), DefaultLowStockThreshold)
	assert.Equal(t, 3, s.Transactions)
	assert.Equal(t, 1, s.Anomalies)
	assert.Equal(t, 2, s.LowStock)
}

func TestSalesCSV(t *testing.T) {
	out, err := SalesCSV(sampleTransactions())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, SalesCSVHeader, records[0])
	// equal timestamps fall back to id order
	assert.Equal(t, "VRA-A", records[1][1])
	assert.Equal(t, "VRA-B", records[2][1])
	assert.Equal(t, "VRA-C", records[3][1])

	assert.Equal(t, []string{"2026-04-02", "VRA-B", "562.60", "77.60", "422.00", "63.00", "M-PESA", "NO"}, records[2])
	assert.Equal(t, "YES", records[1][7])
	assert.Equal(t, "2026-04-01", records[3][0])
}

func TestSalesCSVEmpty(t *testing.T) {
	out, err := SalesCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(SalesCSVHeader, ",")+"\n", string(out))
}

func TestTaxReport(t *testing.T) {
	out := string(TaxReport(sampleTransactions(), "P051XXXXXXX", generatedAt))

	assert.True(t, strings.HasPrefix(out, "TAX REPORT (E-TIMS)\nKRA PIN: P051XXXXXXX\nCreated: 2026-04-02T09:00:00Z\n"))
	assert.Contains(t, out, "Total Sales Sent: 3\n")
	assert.Contains(t, out, "Total Tax Collected (VAT): KES 103.20\n")
	assert.Contains(t, out, "VRA-B | 2026-04-02T08:00:00Z | Tax: KES 77.60 | Status: SENT\n")
	assert.Less(t, strings.Index(out, "VRA-A |"), strings.Index(out, "VRA-C |"))
}

func TestAuditPack(t *testing.T) {
	out, err := AuditPack(AuditInput{
		BusinessName: "Mama Mboga Supermart",
		Role:         models.RoleAuditor,
		VATRate:      decimal.NewFromInt(16),
		Products:     sampleProducts(),
		Transactions: sampleTransactions(),
		GeneratedAt:  generatedAt,
	})
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "BUSINESS REPORT - Mama Mboga Supermart\n")
	assert.Contains(t, text, "Created: 2026-04-02T09:00:00Z\n")
	assert.Contains(t, text, "Total Sales,KES 1198.20\n")
	assert.Contains(t, text, "Tax (VAT 16%),KES 103.20\n")
	assert.Contains(t, text, "Stock Value,KES 20965.00\n")
	assert.Contains(t, text, "2026-03-27,0.00,0.00\n")
	assert.Contains(t, text, "2026-04-02,1128.60,626.60\n")
	assert.Contains(t, text, `VRA-A,2026-04-02T08:00:00Z,"Variance, with comma",KES 566.00`)
	assert.NotContains(t, text, "No problems found.")
}

func TestAuditPackNoProblems(t *testing.T) {
	out, err := AuditPack(AuditInput{
		BusinessName: "Shop",
		Role:         models.RoleOwner,
		VATRate:      decimal.NewFromInt(16),
		GeneratedAt:  generatedAt,
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "--- FLAGGED PROBLEMS ---\nNo problems found.\n")
}

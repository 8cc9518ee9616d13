package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"veira-pos/internal/ledger"
	"veira-pos/internal/models"

	"github.com/shopspring/decimal"
)

// SalesCSVHeader is the column set of the sales ledger export
var SalesCSVHeader = []string{"Date", "Sale ID", "Revenue", "Tax", "Cost", "Profit", "Method", "Flagged"}

// AuditDays is the length of the daily series in the audit pack
const AuditDays = 7

// AuditInput is the snapshot rendered into the audit pack
type AuditInput struct {
	BusinessName string
	Role         models.UserRole
	VATRate      decimal.Decimal
	Products     []models.Product
	Transactions []models.Transaction
	GeneratedAt  time.Time
}

// ordered returns a copy sorted newest first with ids breaking ties
func ordered(txs []models.Transaction) []models.Transaction {
	out := append([]models.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SalesCSV renders the sales ledger. Profit is revenue less cost and tax.
func SalesCSV(txs []models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(SalesCSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, tx := range ordered(txs) {
		flagged := "NO"
		if tx.IsAnomaly() {
			flagged = "YES"
		}
		row := []string{
			models.DayKey(tx.Timestamp),
			tx.ID,
			money(tx.Total),
			money(tx.VAT),
			money(tx.CostOfGoods),
			money(tx.Profit()),
			tx.PaymentMethod.String(),
			flagged,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row %s: %w", tx.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// TaxReport renders the plain-text e-TIMS pack
func TaxReport(txs []models.Transaction, kraPin string, generatedAt time.Time) []byte {
	sorted := ordered(txs)
	totals := ComputeTotals(sorted)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "TAX REPORT (E-TIMS)\nKRA PIN: %s\nCreated: %s\n\n", kraPin, generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Summary:\nTotal Sales Sent: %d\nTotal Tax Collected (VAT): KES %s\n\n", totals.Count, money(totals.Tax))
	buf.WriteString("Sales History:\n")
	for _, tx := range sorted {
		fmt.Fprintf(&buf, "%s | %s | Tax: KES %s | Status: SENT\n",
			tx.ID, models.TimeOf(tx.Timestamp).Format(time.RFC3339), money(tx.VAT))
	}
	return buf.Bytes()
}

// AuditPack renders the business report: money summary, recent daily sales
// and flagged problems
func AuditPack(in AuditInput) ([]byte, error) {
	sorted := ordered(in.Transactions)
	totals := ComputeTotals(sorted)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	blank := func() {
		w.Flush()
		buf.WriteString("\n")
	}
	rows := [][]string{
		{"BUSINESS REPORT - " + in.BusinessName},
		{"Created: " + in.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Job Role: " + in.Role.String()},
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write audit header: %w", err)
	}
	blank()

	rows = [][]string{
		{"--- MONEY SUMMARY ---"},
		{"Total Sales", "KES " + money(totals.Revenue)},
		{"Cost of Goods", "KES " + money(totals.CostOfGoods)},
		{"Gross Profit", "KES " + money(totals.GrossProfit)},
		{"Profit Margin", money(totals.MarginPct) + "%"},
		{fmt.Sprintf("Tax (VAT %s%%)", in.VATRate.String()), "KES " + money(totals.Tax)},
		{"Stock Value", "KES " + money(InventoryValuation(in.Products))},
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write money summary: %w", err)
	}
	blank()

	rows = [][]string{{fmt.Sprintf("--- DAILY SALES (LAST %d DAYS) ---", AuditDays)}, {"Date", "Sales", "Profit"}}
	for _, day := range ledger.AggregateByDay(sorted, in.GeneratedAt, AuditDays) {
		rows = append(rows, []string{day.Date, money(day.Revenue), money(day.Profit)})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write daily sales: %w", err)
	}
	blank()

	rows = [][]string{{"--- FLAGGED PROBLEMS ---"}}
	flagged := Flagged(sorted)
	if len(flagged) == 0 {
		rows = append(rows, []string{"No problems found."})
	} else {
		rows = append(rows, []string{"Sale ID", "Time", "Reason", "Amount"})
		for _, tx := range flagged {
			rows = append(rows, []string{
				tx.ID,
				models.TimeOf(tx.Timestamp).Format(time.RFC3339),
				tx.AnomalyReason(),
				"KES " + money(tx.Total),
			})
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write flagged problems: %w", err)
	}

	return buf.Bytes(), nil
}

package api

import (
	"veira-pos/internal/models"
	"veira-pos/internal/report"
	"veira-pos/internal/service"

	"github.com/shopspring/decimal"
)

// The view types shadow cost fields so roles without cost access get them
// omitted from the JSON.

type productView struct {
	models.Product
	Cost *decimal.Decimal `json:"cost,omitempty"`
}

type cartItemView struct {
	models.CartItem
	Cost *decimal.Decimal `json:"cost,omitempty"`
}

type totalsView struct {
	models.Totals
	CostOfGoods *decimal.Decimal `json:"costOfGoods,omitempty"`
}

type cartView struct {
	Items  []cartItemView `json:"items"`
	Totals totalsView     `json:"totals"`
}

type transactionView struct {
	models.Transaction
	Items       []cartItemView   `json:"items"`
	CostOfGoods *decimal.Decimal `json:"costOfGoods,omitempty"`
}

// reportTotalsView hides cost and everything derived from it
type reportTotalsView struct {
	report.Totals
	CostOfGoods *decimal.Decimal `json:"costOfGoods,omitempty"`
	GrossProfit *decimal.Decimal `json:"grossProfit,omitempty"`
	MarginPct   *decimal.Decimal `json:"marginPct,omitempty"`
}

type dailyView struct {
	models.DailyTotal
	Profit *decimal.Decimal `json:"profit,omitempty"`
}

func costIf(show bool, d decimal.Decimal) *decimal.Decimal {
	if !show {
		return nil
	}
	return &d
}

func viewProducts(role models.UserRole, ps []models.Product) []productView {
	out := make([]productView, len(ps))
	for i, p := range ps {
		out[i] = productView{Product: p, Cost: costIf(role.CanSeeCost(), p.Cost)}
	}
	return out
}

func viewItems(role models.UserRole, items []models.CartItem) []cartItemView {
	out := make([]cartItemView, len(items))
	for i, it := range items {
		out[i] = cartItemView{CartItem: it, Cost: costIf(role.CanSeeCost(), it.Cost)}
	}
	return out
}

func viewCart(role models.UserRole, cv service.CartView) cartView {
	return cartView{
		Items:  viewItems(role, cv.Items),
		Totals: totalsView{Totals: cv.Totals, CostOfGoods: costIf(role.CanSeeCost(), cv.Totals.CostOfGoods)},
	}
}

func viewTransactions(role models.UserRole, txs []models.Transaction) []transactionView {
	out := make([]transactionView, len(txs))
	for i, tx := range txs {
		out[i] = transactionView{
			Transaction: tx,
			Items:       viewItems(role, tx.Items),
			CostOfGoods: costIf(role.CanSeeCost(), tx.CostOfGoods),
		}
	}
	return out
}

func viewReportTotals(role models.UserRole, t report.Totals) reportTotalsView {
	show := role.CanSeeCost()
	return reportTotalsView{
		Totals:      t,
		CostOfGoods: costIf(show, t.CostOfGoods),
		GrossProfit: costIf(show, t.GrossProfit),
		MarginPct:   costIf(show, t.MarginPct),
	}
}

func viewDaily(role models.UserRole, days []models.DailyTotal) []dailyView {
	out := make([]dailyView, len(days))
	for i, d := range days {
		out[i] = dailyView{DailyTotal: d, Profit: costIf(role.CanSeeCost(), d.Profit)}
	}
	return out
}

package models

import (
	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog entry
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Stock    int             `json:"stock"`
	Category Category        `json:"category"`
	ImageURL string          `json:"imageUrl"`
}

// CartItem is a snapshot of a product plus the requested quantity.
// It is copied by value into the cart and later into the transaction.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal returns price x quantity
func (ci CartItem) LineTotal() decimal.Decimal {
	return ci.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// LineCost returns cost x quantity
func (ci CartItem) LineCost() decimal.Decimal {
	return ci.Cost.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// Anomaly marks a transaction as irregular for audit review
type Anomaly struct {
	Kind   AnomalyKind `json:"kind"`
	Reason string      `json:"reason"`
}

// Transaction is an immutable record of one completed sale
type Transaction struct {
	ID            string          `json:"id"`
	Timestamp     int64           `json:"timestamp"`
	Items         []CartItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Total         decimal.Decimal `json:"total"`
	VAT           decimal.Decimal `json:"vat"`
	CostOfGoods   decimal.Decimal `json:"costOfGoods"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Anomaly       *Anomaly        `json:"anomaly,omitempty"`
}

// IsAnomaly reports whether the transaction carries an anomaly
func (t Transaction) IsAnomaly() bool {
	return t.Anomaly != nil
}

// AnomalyReason returns the reason text or "" for clean transactions
func (t Transaction) AnomalyReason() string {
	if t.Anomaly == nil {
		return ""
	}
	return t.Anomaly.Reason
}

// Profit returns revenue net of cost of goods and tax
func (t Transaction) Profit() decimal.Decimal {
	return t.Total.Sub(t.CostOfGoods).Sub(t.VAT)
}

// Clone returns a deep copy so callers cannot reach into ledger-owned slices
func (t Transaction) Clone() Transaction {
	out := t
	out.Items = append([]CartItem(nil), t.Items...)
	if t.Anomaly != nil {
		a := *t.Anomaly
		out.Anomaly = &a
	}
	return out
}

// Settings holds the business configuration edited from the settings screen
type Settings struct {
	BusinessName string          `json:"businessName"`
	KRAPin       string          `json:"kraPin"`
	VATRate      decimal.Decimal `json:"vatRate"`
	OwnerProfile OwnerProfile    `json:"ownerProfile"`
	BusinessType BusinessType    `json:"businessType"`
	UserRole     UserRole        `json:"userRole"`
}

// DefaultSettings returns the settings of a freshly installed shop
func DefaultSettings() Settings {
	return Settings{
		BusinessName: "Mama Mboga Supermart",
		KRAPin:       "P051XXXXXXX",
		VATRate:      decimal.NewFromInt(16),
		OwnerProfile: ProfileGrowth,
		BusinessType: BusinessRetail,
		UserRole:     RoleOwner,
	}
}

// Totals is the priced view of a cart
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	CostOfGoods decimal.Decimal `json:"costOfGoods"`
}

// DailyTotal is one calendar day of the revenue series
type DailyTotal struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
	Count   int             `json:"count"`
}

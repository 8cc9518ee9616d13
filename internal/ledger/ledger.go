// Package ledger is the append-only record of completed sales.
//
// Ledger is not safe for concurrent use; see the catalog package.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"veira-pos/internal/cart"
	"veira-pos/internal/models"
	"veira-pos/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockKeeper decrements catalog stock. DecrementStock must clamp instead of
// failing on oversell; its only error is a NotFoundError for an unknown id.
type StockKeeper interface {
	DecrementStock(id string, quantity int) (remaining int, clamped bool, err error)
}

// Filter selects transactions by anomaly flag
type Filter int

const (
	FilterAll Filter = iota
	FilterFlagged
	FilterClean
)

// StockChange describes what checkout did to one product's stock
type StockChange struct {
	ProductID string `json:"productId"`
	Remaining int    `json:"remaining"`
	Clamped   bool   `json:"clamped"`
	// Missing is set when the product left the catalog after it was added to the cart
	Missing bool `json:"missing"`
}

// Receipt is the result of a completed checkout
type Receipt struct {
	Transaction models.Transaction
	Stock       []StockChange
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides transaction id generation
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// Ledger stores transactions newest-inserted first
type Ledger struct {
	txs   []models.Transaction
	ids   map[string]struct{}
	now   func() time.Time
	newID func(time.Time) string
}

// New creates a ledger holding existing transactions in the given order
func New(txs []models.Transaction, opts ...Option) *Ledger {
	l := &Ledger{
		ids:   make(map[string]struct{}, len(txs)),
		now:   time.Now,
		newID: NewTransactionID,
	}
	for _, o := range opts {
		o(l)
	}
	for _, t := range txs {
		l.txs = append(l.txs, t.Clone())
		l.ids[t.ID] = struct{}{}
	}
	return l
}

// NewTransactionID combines a millisecond timestamp with a random suffix
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("VRA-%d-%s", now.UnixMilli(), uuid.New().String()[:8])
}

// Complete records the sale in c, decrements stock for every line and clears
// the cart. All validation happens before the first mutation so the ledger
// insert and stock decrements are applied together or not at all.
func (l *Ledger) Complete(c *cart.Cart, method models.PaymentMethod, taxRatePercent decimal.Decimal, stock StockKeeper) (*Receipt, error) {
	if c.IsEmpty() {
		return nil, models.ErrEmptyCart
	}
	if !method.Valid() {
		return nil, models.NewValidationError("payment method", "unknown payment method")
	}

	items := c.Items()
	totals, err := pricing.ComputeTotals(items, taxRatePercent)
	if err != nil {
		return nil, err
	}

	now := l.now()
	id, err := l.uniqueID(now)
	if err != nil {
		return nil, err
	}

	tx := models.Transaction{
		ID:            id,
		Timestamp:     now.UnixMilli(),
		Items:         items,
		Subtotal:      totals.Subtotal,
		TaxRate:       taxRatePercent,
		Total:         totals.Total,
		VAT:           totals.Tax,
		CostOfGoods:   totals.CostOfGoods,
		PaymentMethod: method,
	}

	changes := make([]StockChange, 0, len(items))
	for _, it := range items {
		remaining, clamped, err := stock.DecrementStock(it.ID, it.Quantity)
		changes = append(changes, StockChange{
			ProductID: it.ID,
			Remaining: remaining,
			Clamped:   clamped,
			Missing:   err != nil,
		})
	}

	l.txs = append([]models.Transaction{tx}, l.txs...)
	l.ids[tx.ID] = struct{}{}
	c.Clear()

	return &Receipt{Transaction: tx.Clone(), Stock: changes}, nil
}

func (l *Ledger) uniqueID(now time.Time) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		id := l.newID(now)
		if _, exists := l.ids[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique transaction id")
}

// Append inserts an already-built transaction, used for imported history
func (l *Ledger) Append(t models.Transaction) error {
	if t.ID == "" {
		return models.NewValidationError("id", "must not be empty")
	}
	if _, exists := l.ids[t.ID]; exists {
		return models.NewValidationError("id", "transaction "+t.ID+" already exists")
	}
	if t.Anomaly != nil && t.Anomaly.Reason == "" {
		return models.NewValidationError("anomaly", "flagged transaction needs a reason")
	}
	l.txs = append([]models.Transaction{t.Clone()}, l.txs...)
	l.ids[t.ID] = struct{}{}
	return nil
}

// List returns transactions matching filter, newest timestamp first.
// Ties keep ledger order.
func (l *Ledger) List(filter Filter) []models.Transaction {
	out := make([]models.Transaction, 0, len(l.txs))
	for _, t := range l.txs {
		switch filter {
		case FilterFlagged:
			if !t.IsAnomaly() {
				continue
			}
		case FilterClean:
			if t.IsAnomaly() {
				continue
			}
		}
		out = append(out, t.Clone())
	}
	SortNewestFirst(out)
	return out
}

// Get returns the transaction with the given id
func (l *Ledger) Get(id string) (models.Transaction, error) {
	for _, t := range l.txs {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return models.Transaction{}, models.NewNotFoundError("transaction", id)
}

// Snapshot returns a copy of every transaction in ledger order
func (l *Ledger) Snapshot() []models.Transaction {
	out := make([]models.Transaction, len(l.txs))
	for i, t := range l.txs {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of transactions
func (l *Ledger) Len() int {
	return len(l.txs)
}

// AggregateByDay sums this ledger's revenue per UTC day; see AggregateByDay
func (l *Ledger) AggregateByDay(now time.Time, lastNDays int) []models.DailyTotal {
	return AggregateByDay(l.txs, now, lastNDays)
}

// SortNewestFirst orders transactions by timestamp descending, stable
func SortNewestFirst(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp > txs[j].Timestamp
	})
}

// AggregateByDay groups transactions by UTC calendar day over the lastNDays
// days ending on now's day, oldest day first. Days without sales are present
// with zero values. Profit is revenue minus cost of goods.
func AggregateByDay(txs []models.Transaction, now time.Time, lastNDays int) []models.DailyTotal {
	if lastNDays <= 0 {
		return []models.DailyTotal{}
	}

	today := models.DayStart(now)
	days := make([]models.DailyTotal, lastNDays)
	pos := make(map[string]int, lastNDays)
	for i := 0; i < lastNDays; i++ {
		key := today.AddDate(0, 0, i-lastNDays+1).Format(models.DateLayout)
		days[i] = models.DailyTotal{Date: key, Revenue: decimal.Zero, Profit: decimal.Zero}
		pos[key] = i
	}

	for _, t := range txs {
		i, ok := pos[models.DayKey(t.Timestamp)]
		if !ok {
			continue
		}
		days[i].Revenue = days[i].Revenue.Add(t.Total)
		days[i].Profit = days[i].Profit.Add(t.Total.Sub(t.CostOfGoods))
		days[i].Count++
	}
	return days
}

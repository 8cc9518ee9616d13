package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSaleCompleted = "SALE_COMPLETED"
	EventTypeStockLow      = "STOCK_LOW"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleCompletedEvent published after a checkout commits
type SaleCompletedEvent struct {
	BaseEvent
	TransactionID string          `json:"transaction_id"`
	Total         decimal.Decimal `json:"total"`
	VAT           decimal.Decimal `json:"vat"`
	CostOfGoods   decimal.Decimal `json:"cost_of_goods"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Items         []SaleItemData  `json:"items"`
}

// StockLowEvent published when a sale takes a product under the low-stock threshold
type StockLowEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

// SaleItemData represents item data in events
type SaleItemData struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

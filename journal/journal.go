// Package journal persists the engine's historical orders and account
// equity curve to SQLite or CSV.
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord is one historical (terminal or fill-snapshot) order.
type OrderRecord struct {
	OrderID   string
	ClientID  string
	AccountID string
	Symbol    string
	Side      string
	Kind      string

	Quantity          decimal.Decimal
	FilledQuantity    decimal.Decimal
	CancelledQuantity decimal.Decimal
	AvgFillPrice      decimal.Decimal
	Commission        decimal.Decimal
	Profit            decimal.Decimal

	Status     string // Filled | Cancelled
	CreatedAt  time.Time
	RecordedAt time.Time
}

// EquitySnapshot is one point of the account equity curve.
type EquitySnapshot struct {
	Time     time.Time
	Currency string
	Balance  decimal.Decimal
	Margin   decimal.Decimal
	Profit   decimal.Decimal
	Equity   decimal.Decimal
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

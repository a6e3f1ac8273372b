package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

// Execution is one incremental execution report: a fill delta, a
// cancellation delta, or both. Quantity is the venue's view of the order's
// total requested quantity, FilledQuantity/CancelledQuantity are the
// increments carried by this report.
type Execution struct {
	OrderID   string
	ClientID  string
	AccountID string
	Symbol    string

	Side Side
	Kind Kind

	Quantity          decimal.Decimal
	FilledQuantity    decimal.Decimal
	CancelledQuantity decimal.Decimal
	Price             decimal.Decimal // fill price for this delta
	Commission        decimal.Decimal

	Time time.Time
}

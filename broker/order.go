package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type Kind string

const (
	KindMarket Kind = "Market"
	KindLimit  Kind = "Limit"
	KindStop   Kind = "Stop"
)

// Conditional reports whether the order kind waits on a trigger price.
func (k Kind) Conditional() bool {
	return k == KindLimit || k == KindStop
}

type TimeInForce string

const (
	TIFFillOrKill        TimeInForce = "FOK"
	TIFImmediateOrCancel TimeInForce = "IOC"
	TIFGoodForDay        TimeInForce = "GFD"
	TIFGoodTillCancelled TimeInForce = "GTC"
)

// HistoryStatus is the terminal disposition reported for historical orders.
type HistoryStatus string

const (
	HistoryFilled    HistoryStatus = "Filled"
	HistoryCancelled HistoryStatus = "Cancelled"
)

// Order is one trading instruction together with its accumulated execution
// state. Quantity == FilledQuantity + CancelledQuantity once the order is
// terminal; OpenQuantity is the filled portion not yet offset by an opposing
// fill.
type Order struct {
	ID        string // venue order id, empty until the venue reports one
	ClientID  string
	AccountID string
	Symbol    string

	Side     Side
	Kind     Kind
	TIF      TimeInForce
	Quantity decimal.Decimal
	Price    decimal.Decimal // limit/stop trigger price

	// ServerSide marks orders (or brackets) whose triggering is emulated
	// locally instead of being delegated to the venue.
	ServerSide bool
	StopLoss   decimal.Decimal // offset from avg fill price, zero = none
	TakeProfit decimal.Decimal // offset from avg fill price, zero = none

	FilledQuantity    decimal.Decimal
	CancelledQuantity decimal.Decimal
	OpenQuantity      decimal.Decimal
	AvgFillPrice      decimal.Decimal
	Commission        decimal.Decimal // account currency
	Profit            decimal.Decimal
	PipProfit         decimal.Decimal
	CurrentPrice      decimal.Decimal

	// How much of the filled quantity opened new exposure vs closed
	// existing exposure.
	OpeningQuantity decimal.Decimal
	ClosingQuantity decimal.Decimal

	CreatedAt time.Time
}

// Remaining is the quantity not yet filled or cancelled.
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity).Sub(o.CancelledQuantity)
}

// IsActive reports whether the order still has unresolved quantity or open
// exposure. Only inactive orders are safe to drop from the live collection.
func (o *Order) IsActive() bool {
	return o.Remaining().IsPositive() || o.OpenQuantity.IsPositive()
}

// HasBracket reports whether a stop-loss or take-profit offset is attached.
// A zero offset means no bracket.
func (o *Order) HasBracket() bool {
	return o.StopLoss.IsPositive() || o.TakeProfit.IsPositive()
}

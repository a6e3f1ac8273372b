package broker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Credentials authenticate against a venue.
type Credentials struct {
	Account  string
	User     string
	Password string
}

// Venue is the outbound contract a venue protocol client must satisfy.
// Order calls are fire-and-forget: the authoritative result arrives later
// through the ReportSink as execution reports and position snapshots.
type Venue interface {
	Login(ctx context.Context, creds Credentials) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	PlaceOrder(o Order) error
	CancelOrder(o Order) error
	ModifyOrder(o Order) error
}

// ReportSink is the inbound contract implemented by the execution engine:
// venue clients feed parsed reports and the datafeed pushes ticks into it.
type ReportSink interface {
	ProcessOrderUpdate(o Order)
	ProcessOrderExecution(x Execution)
	ProcessPositionUpdate(p Position)
	OnNewTick(symbol string, bid, ask decimal.Decimal, ts time.Time)
}

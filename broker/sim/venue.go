// Package sim provides a simulated venue: market orders fill immediately at
// the cached top-of-book price and come back through the report sink as
// execution and position reports, the way a real venue client would deliver
// them. The venue has no native conditional-order support; limit and stop
// orders must be emulated server-side by the engine.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/brokerd/broker"
	"github.com/rustyeddy/brokerd/market"
)

type netPosition struct {
	qty decimal.Decimal // signed, positive long
	avg decimal.Decimal
}

type Venue struct {
	mu         sync.Mutex
	ticks      *market.TickStore
	securities market.Securities
	sink       broker.ReportSink
	positions  map[string]*netPosition
	nextID     int
	started    bool
}

func New(ticks *market.TickStore, securities market.Securities) *Venue {
	return &Venue{
		ticks:      ticks,
		securities: securities,
		positions:  make(map[string]*netPosition),
	}
}

// Connect sets the sink execution and position reports are delivered to.
// Reports are delivered synchronously on the caller's goroutine.
func (v *Venue) Connect(sink broker.ReportSink) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sink = sink
}

func (v *Venue) Login(ctx context.Context, creds broker.Credentials) error {
	if creds.Account == "" {
		return errors.New("sim venue: account required")
	}
	return nil
}

func (v *Venue) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sink == nil {
		return errors.New("sim venue: no report sink connected")
	}
	v.started = true
	return nil
}

func (v *Venue) Stop(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.started = false
	return nil
}

// PlaceOrder fills a market order at the current tick: ask for buys, bid
// for sells. Conditional orders are refused, matching a venue without
// native stop/limit support.
func (v *Venue) PlaceOrder(o broker.Order) error {
	if o.Kind != broker.KindMarket {
		return fmt.Errorf("sim venue: %s orders are not supported", o.Kind)
	}

	v.mu.Lock()
	if !v.started {
		v.mu.Unlock()
		return errors.New("sim venue: not started")
	}
	tick, err := v.ticks.Get(o.Symbol)
	if err != nil {
		v.mu.Unlock()
		return fmt.Errorf("sim venue: no price for %s", o.Symbol)
	}
	price := tick.Ask
	if o.Side == broker.SideSell {
		price = tick.Bid
	}
	v.nextID++
	venueID := fmt.Sprintf("SIM-%d", v.nextID)

	pos := v.applyLocked(o.Symbol, o.Side, o.Quantity, price)
	sink := v.sink
	v.mu.Unlock()

	sink.ProcessOrderExecution(broker.Execution{
		OrderID:        venueID,
		ClientID:       o.ClientID,
		AccountID:      o.AccountID,
		Symbol:         o.Symbol,
		Side:           o.Side,
		Kind:           broker.KindMarket,
		Quantity:       o.Quantity,
		FilledQuantity: o.Quantity,
		Price:          price,
		Time:           tick.Time,
	})
	sink.ProcessPositionUpdate(pos)
	return nil
}

// CancelOrder reports the order's remaining quantity as cancelled.
func (v *Venue) CancelOrder(o broker.Order) error {
	v.mu.Lock()
	if !v.started {
		v.mu.Unlock()
		return errors.New("sim venue: not started")
	}
	sink := v.sink
	v.mu.Unlock()

	sink.ProcessOrderExecution(broker.Execution{
		OrderID:           o.ID,
		ClientID:          o.ClientID,
		AccountID:         o.AccountID,
		Symbol:            o.Symbol,
		Side:              o.Side,
		Kind:              o.Kind,
		Quantity:          o.Quantity,
		CancelledQuantity: o.Remaining(),
	})
	return nil
}

// ModifyOrder is a no-op: brackets against this venue are always emulated
// engine-side.
func (v *Venue) ModifyOrder(o broker.Order) error {
	return nil
}

// applyLocked folds a fill into the venue-side net position and returns the
// snapshot to report. Same-side fills extend at a weighted average price,
// opposite-side fills reduce, and an overshoot flips the position at the
// fill price.
func (v *Venue) applyLocked(symbol string, side broker.Side, qty, price decimal.Decimal) broker.Position {
	p, ok := v.positions[symbol]
	if !ok {
		p = &netPosition{}
		v.positions[symbol] = p
	}
	signed := qty
	if side == broker.SideSell {
		signed = qty.Neg()
	}

	switch {
	case p.qty.IsZero():
		p.qty = signed
		p.avg = price
	case p.qty.Sign() == signed.Sign():
		total := p.qty.Add(signed)
		p.avg = p.avg.Mul(p.qty.Abs()).Add(price.Mul(signed.Abs())).Div(total.Abs())
		p.qty = total
	default:
		total := p.qty.Add(signed)
		if total.Sign() != 0 && total.Sign() != p.qty.Sign() {
			p.avg = price // reversal
		}
		p.qty = total
	}

	snap := broker.Position{
		Symbol:   symbol,
		Quantity: p.qty.Abs(),
		AvgPrice: p.avg,
		Side:     broker.SideBuy,
	}
	if p.qty.IsNegative() {
		snap.Side = broker.SideSell
	}
	if p.qty.IsZero() {
		delete(v.positions, symbol)
	}
	return snap
}

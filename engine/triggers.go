package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/brokerd/broker"
)

// tickActions is the set of deferred trigger outcomes collected while the
// order lock is held; the engine acts on them after releasing it.
type tickActions struct {
	fired   []broker.Order // pending orders to resubmit as market orders
	expired []broker.Order // good-for-day orders past their calendar date
	bracket []broker.Order // orders whose stop-loss/take-profit crossed
}

// evaluateLocked runs the synthetic conditional evaluator over every
// server-side order on the ticked symbol. Valuation must have refreshed
// CurrentPrice first. Caller holds ordersMu.
func (e *Engine) evaluateLocked(symbol string, now time.Time) tickActions {
	var acts tickActions
	for _, o := range append([]*broker.Order(nil), e.orders...) {
		if o.Symbol != symbol || !o.ServerSide {
			continue
		}

		if o.Kind.Conditional() {
			if o.TIF == broker.TIFGoodForDay && !sameUTCDate(o.CreatedAt, now) {
				o.CancelledQuantity = o.Quantity.Sub(o.FilledQuantity)
				o.OpenQuantity = decimal.Zero
				acts.expired = append(acts.expired, *o)
				e.removeLocked(o)
				continue
			}
			if pendingTriggered(o) {
				acts.fired = append(acts.fired, *o)
				e.removeLocked(o)
			}
			continue
		}

		if !o.HasBracket() || !o.FilledQuantity.Equal(o.Quantity) || !o.OpenQuantity.IsPositive() {
			continue
		}
		if bracketTriggered(o) {
			o.StopLoss = decimal.Zero
			o.TakeProfit = decimal.Zero
			o.ServerSide = false
			acts.bracket = append(acts.bracket, *o)
		}
	}
	return acts
}

// actOn performs the deferred trigger outcomes with no locks held.
func (e *Engine) actOn(acts tickActions) {
	for _, o := range acts.expired {
		e.events.OrderRejected(o, "Order is expired")
		e.events.HistoricalOrder(o, broker.HistoryCancelled)
	}
	for _, o := range acts.fired {
		o.Kind = broker.KindMarket
		o.Price = decimal.Zero
		e.PlaceOrder(o)
	}
	if len(acts.bracket) > 0 {
		e.events.OrdersUpdated(acts.bracket)
		for _, o := range acts.bracket {
			e.PlaceOrder(broker.Order{
				AccountID: o.AccountID,
				Symbol:    o.Symbol,
				Side:      o.Side.Opposite(),
				Kind:      broker.KindMarket,
				Quantity:  o.OpenQuantity,
			})
		}
	}
}

// pendingTriggered decides whether a server-side limit/stop order fires at
// its current reference price (the side it would execute on).
func pendingTriggered(o *broker.Order) bool {
	price := o.CurrentPrice
	if price.IsZero() {
		return false
	}
	switch {
	case o.Side == broker.SideBuy && o.Kind == broker.KindLimit:
		return price.LessThanOrEqual(o.Price)
	case o.Side == broker.SideBuy && o.Kind == broker.KindStop:
		return price.GreaterThanOrEqual(o.Price)
	case o.Side == broker.SideSell && o.Kind == broker.KindLimit:
		return price.GreaterThanOrEqual(o.Price)
	case o.Side == broker.SideSell && o.Kind == broker.KindStop:
		return price.LessThanOrEqual(o.Price)
	}
	return false
}

// bracketTriggered checks whether the current price crossed
// avgFillPrice +/- offset in the direction that realizes the stop or the
// profit, accounting for side. CurrentPrice already carries the closing
// side: bid for long exposure, ask for short.
func bracketTriggered(o *broker.Order) bool {
	price := o.CurrentPrice
	if price.IsZero() {
		return false
	}
	if o.Side == broker.SideBuy {
		if o.StopLoss.IsPositive() && price.LessThanOrEqual(o.AvgFillPrice.Sub(o.StopLoss)) {
			return true
		}
		if o.TakeProfit.IsPositive() && price.GreaterThanOrEqual(o.AvgFillPrice.Add(o.TakeProfit)) {
			return true
		}
		return false
	}
	if o.StopLoss.IsPositive() && price.GreaterThanOrEqual(o.AvgFillPrice.Add(o.StopLoss)) {
		return true
	}
	if o.TakeProfit.IsPositive() && price.LessThanOrEqual(o.AvgFillPrice.Sub(o.TakeProfit)) {
		return true
	}
	return false
}

func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

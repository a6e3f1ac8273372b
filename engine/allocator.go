package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/brokerd/broker"
)

// allocateLocked reduces the triggering order's open quantity against
// opposing-side open orders of the same symbol, oldest first, attributing
// retained profit and commission proportionally to the orders being closed.
// Ties in creation time keep insertion order; ids on the priority list
// float to the front as a stable secondary tie-break.
//
// Caller holds ordersMu and must emit OrdersChanged afterwards regardless
// of whether any opposing order existed.
func (e *Engine) allocateLocked(o *broker.Order) {
	opposing := make([]*broker.Order, 0, len(e.orders))
	for _, opp := range e.orders {
		if opp == o || opp.Symbol != o.Symbol || opp.Side != o.Side.Opposite() {
			continue
		}
		if opp.OpenQuantity.IsPositive() {
			opposing = append(opposing, opp)
		}
	}

	sort.SliceStable(opposing, func(i, j int) bool {
		return opposing[i].CreatedAt.Before(opposing[j].CreatedAt)
	})
	if len(e.priority) > 0 {
		prio := make(map[string]bool, len(e.priority))
		for _, pid := range e.priority {
			prio[pid] = true
		}
		sort.SliceStable(opposing, func(i, j int) bool {
			return prio[orderKey(opposing[i])] && !prio[orderKey(opposing[j])]
		})
	}

	remaining := o.OpenQuantity
	for _, opp := range opposing {
		if !remaining.IsPositive() {
			break
		}
		if opp.OpenQuantity.LessThanOrEqual(remaining) {
			remaining = remaining.Sub(opp.OpenQuantity)
			opp.OpenQuantity = decimal.Zero
			if !opp.IsActive() {
				e.removeLocked(opp)
			}
			continue
		}
		kept := opp.OpenQuantity.Sub(remaining)
		scale := kept.Div(opp.OpenQuantity)
		opp.Profit = opp.Profit.Mul(scale)
		opp.Commission = opp.Commission.Mul(scale)
		opp.OpenQuantity = kept
		remaining = decimal.Zero
	}

	o.OpenQuantity = remaining
	if remaining.IsZero() && !o.IsActive() {
		e.removeLocked(o)
	}
}

// markPriorityLocked records an order id for the allocator's front-float.
// Marks last until the next tick or the end of the reconciliation cycle,
// whichever comes first.
func (e *Engine) markPriorityLocked(key string) {
	for _, pid := range e.priority {
		if pid == key {
			return
		}
	}
	e.priority = append(e.priority, key)
}

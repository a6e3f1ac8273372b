package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/brokerd/broker"
	"github.com/rustyeddy/brokerd/internal/id"
)

// The reconciliation engine merges three independent truth sources from the
// venue into the internal collections: authoritative order snapshots,
// incremental execution deltas, and authoritative position snapshots. Every
// entry point is idempotent with respect to replays and guarded by the
// dispatch recovery boundary.

type histEvent struct {
	order  broker.Order
	status broker.HistoryStatus
}

// ProcessOrderUpdate applies the venue's authoritative view of one order.
func (e *Engine) ProcessOrderUpdate(snap broker.Order) {
	e.dispatch(func() { e.processOrderUpdate(snap) })
}

func (e *Engine) processOrderUpdate(snap broker.Order) {
	if b, ok := e.takeBracket(snap.ClientID, snap.ID); ok {
		snap.StopLoss = b.stopLoss
		snap.TakeProfit = b.takeProfit
		snap.ServerSide = b.serverSide
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	e.ordersMu.Lock()
	live := e.findLocked(snap.ID, snap.ClientID)
	changed := false
	if live == nil {
		if snap.IsActive() {
			cp := snap
			e.orders = append(e.orders, &cp)
			changed = true
		}
	} else if orderDiffers(live, &snap) {
		e.removeLocked(live)
		if snap.IsActive() {
			cp := snap
			e.orders = append(e.orders, &cp)
		}
		changed = true
	}
	var list []broker.Order
	if changed {
		list = e.snapshotLocked()
	}
	e.ordersMu.Unlock()

	if changed {
		e.events.OrdersChanged(list)
	}
	if !snap.IsActive() {
		status := broker.HistoryFilled
		if snap.CancelledQuantity.IsPositive() {
			status = broker.HistoryCancelled
		}
		e.events.HistoricalOrder(snap, status)
	}
}

func orderDiffers(a, b *broker.Order) bool {
	return !a.Quantity.Equal(b.Quantity) ||
		!a.FilledQuantity.Equal(b.FilledQuantity) ||
		!a.CancelledQuantity.Equal(b.CancelledQuantity) ||
		!a.OpenQuantity.Equal(b.OpenQuantity)
}

// ProcessOrderExecution applies one incremental fill or cancellation.
// Unseen orders are synthesized from the delta, picking up any bracket
// offsets parked for them.
func (e *Engine) ProcessOrderExecution(x broker.Execution) {
	e.dispatch(func() { e.processOrderExecution(x) })
}

func (e *Engine) processOrderExecution(x broker.Execution) {
	// pre-fill position decides the opening/closing split; read it before
	// taking the order lock so the two locks never nest
	prePos := e.positionSnapshot(x.Symbol)

	var hist []histEvent

	e.ordersMu.Lock()
	o := e.findLocked(x.OrderID, x.ClientID)
	if o == nil {
		o = e.synthesizeLocked(x, prePos)
	} else {
		if o.ID == "" {
			o.ID = x.OrderID
		}
		if x.FilledQuantity.IsPositive() {
			applyFill(o, x, prePos)
		}
		if x.CancelledQuantity.IsPositive() {
			o.CancelledQuantity = o.CancelledQuantity.Add(x.CancelledQuantity)
			hist = append(hist, histEvent{order: *o, status: broker.HistoryCancelled})
			if !o.IsActive() {
				e.removeLocked(o)
			}
		}
	}

	if x.FilledQuantity.IsPositive() {
		hist = append(hist, histEvent{order: *o, status: broker.HistoryFilled})
		if o.Remaining().IsPositive() {
			e.markPriorityLocked(orderKey(o))
		}
		e.allocateLocked(o)
	}
	list := e.snapshotLocked()
	e.ordersMu.Unlock()

	// consumers refresh their order list on this even when nothing opposed
	e.events.OrdersChanged(list)
	for _, h := range hist {
		e.events.HistoricalOrder(h.order, h.status)
	}
	e.events.AccountChanged(e.aggregateAccount())
}

// synthesizeLocked builds an order record from an execution delta for an
// order the engine has never seen. Caller holds ordersMu.
func (e *Engine) synthesizeLocked(x broker.Execution, prePos *broker.Position) *broker.Order {
	opening, closing := splitQuantity(prePos, x.Side, x.FilledQuantity)
	kind := x.Kind
	if kind == "" {
		kind = broker.KindMarket
	}
	qty := x.Quantity
	if qty.IsZero() {
		qty = x.FilledQuantity.Add(x.CancelledQuantity)
	}
	created := x.Time
	if created.IsZero() {
		created = time.Now().UTC()
	}
	o := &broker.Order{
		ID:                x.OrderID,
		ClientID:          x.ClientID,
		AccountID:         x.AccountID,
		Symbol:            x.Symbol,
		Side:              x.Side,
		Kind:              kind,
		TIF:               broker.TIFGoodTillCancelled,
		Quantity:          qty,
		FilledQuantity:    x.FilledQuantity,
		CancelledQuantity: x.CancelledQuantity,
		OpenQuantity:      x.FilledQuantity,
		AvgFillPrice:      x.Price,
		Commission:        x.Commission,
		OpeningQuantity:   opening,
		ClosingQuantity:   closing,
		CreatedAt:         created,
	}
	if o.ClientID == "" {
		o.ClientID = id.New()
	}
	if b, ok := e.takeBracket(x.ClientID, x.OrderID); ok {
		o.StopLoss = b.stopLoss
		o.TakeProfit = b.takeProfit
		o.ServerSide = b.serverSide
	}
	e.orders = append(e.orders, o)
	return o
}

// applyFill accumulates a fill delta: weighted-average fill price, filled
// and open quantity, the opening/closing split, and commission.
func applyFill(o *broker.Order, x broker.Execution, prePos *broker.Position) {
	newFilled := o.FilledQuantity.Add(x.FilledQuantity)
	o.AvgFillPrice = o.AvgFillPrice.Mul(o.FilledQuantity).
		Add(x.Price.Mul(x.FilledQuantity)).
		Div(newFilled)
	o.FilledQuantity = newFilled
	o.OpenQuantity = o.OpenQuantity.Add(x.FilledQuantity)
	o.Commission = o.Commission.Add(x.Commission)

	opening, closing := splitQuantity(prePos, x.Side, x.FilledQuantity)
	o.OpeningQuantity = o.OpeningQuantity.Add(opening)
	o.ClosingQuantity = o.ClosingQuantity.Add(closing)
}

// splitQuantity classifies how much of a fill opens new exposure versus
// closes existing exposure, given the pre-fill position: no position or a
// same-side position means all opening; an opposite-side position absorbs
// quantity up to its size as closing, any excess is a reversal and opens.
func splitQuantity(pre *broker.Position, side broker.Side, qty decimal.Decimal) (opening, closing decimal.Decimal) {
	if pre == nil || pre.Quantity.IsZero() || pre.Side == side {
		return qty, decimal.Zero
	}
	closing = decimal.Min(qty, pre.Quantity)
	return qty.Sub(closing), closing
}

func (e *Engine) positionSnapshot(symbol string) *broker.Position {
	e.positionsMu.Lock()
	defer e.positionsMu.Unlock()
	p, ok := e.positions[symbol]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// ProcessPositionUpdate applies the venue's authoritative position for one
// symbol. A zero quantity removes the position and force-flattens every
// order still holding open quantity on the symbol; otherwise the venue's
// signed quantity is compared against the internal signed open-quantity sum
// and a corrective order is synthesized for any difference.
func (e *Engine) ProcessPositionUpdate(p broker.Position) {
	e.dispatch(func() { e.processPositionUpdate(p) })
}

func (e *Engine) processPositionUpdate(p broker.Position) {
	e.positionsMu.Lock()
	live, seen := e.positions[p.Symbol]
	var (
		removed    bool
		posCopy    broker.Position
		membership bool
	)
	switch {
	case !seen && p.Quantity.IsZero():
		e.positionsMu.Unlock()
		return
	case !seen:
		cp := p
		e.positions[p.Symbol] = &cp
		posCopy = cp
		membership = true
	case p.Quantity.IsZero():
		delete(e.positions, p.Symbol)
		removed = true
		membership = true
	default:
		live.Side = p.Side
		live.Quantity = p.Quantity
		live.AvgPrice = p.AvgPrice
		posCopy = *live
	}
	var positions []broker.Position
	if membership {
		positions = e.positionsLocked()
	}
	e.positionsMu.Unlock()

	if removed {
		e.flattenOrders(p.Symbol)
		e.events.PositionsChanged(positions)
		e.events.AccountChanged(e.aggregateAccount())
		return
	}

	e.reconcileOpenQuantity(posCopy)
	e.events.PositionChanged(posCopy)
	if membership {
		e.events.PositionsChanged(positions)
	}
	e.events.AccountChanged(e.aggregateAccount())
}

// flattenOrders forces every order on the symbol out of open exposure,
// dropping the ones that become inactive.
func (e *Engine) flattenOrders(symbol string) {
	e.ordersMu.Lock()
	for _, o := range append([]*broker.Order(nil), e.orders...) {
		if o.Symbol != symbol || !o.OpenQuantity.IsPositive() {
			continue
		}
		o.OpenQuantity = decimal.Zero
		if !o.IsActive() {
			e.removeLocked(o)
		}
	}
	list := e.snapshotLocked()
	e.ordersMu.Unlock()
	e.events.OrdersChanged(list)
}

// reconcileOpenQuantity synthesizes a corrective order when the venue's
// signed position disagrees with the sum of internally tracked open order
// quantities for the symbol. This is a recovery path, not a failure: venues
// do not report every micro-adjustment explicitly.
func (e *Engine) reconcileOpenQuantity(pos broker.Position) {
	want := pos.SignedQuantity()

	e.ordersMu.Lock()
	sum := decimal.Zero
	for _, o := range e.orders {
		if o.Symbol != pos.Symbol {
			continue
		}
		if o.Side == broker.SideBuy {
			sum = sum.Add(o.OpenQuantity)
		} else {
			sum = sum.Sub(o.OpenQuantity)
		}
	}
	diff := want.Sub(sum)
	corrected := false
	if !diff.IsZero() {
		side := broker.SideBuy
		qty := diff
		if diff.IsNegative() {
			side = broker.SideSell
			qty = diff.Neg()
		}
		opening, closing := splitQuantity(&pos, side, qty)
		c := &broker.Order{
			ID:              id.New(),
			ClientID:        id.New(),
			AccountID:       e.account.ID,
			Symbol:          pos.Symbol,
			Side:            side,
			Kind:            broker.KindMarket,
			TIF:             broker.TIFGoodTillCancelled,
			Quantity:        qty,
			FilledQuantity:  qty,
			OpenQuantity:    qty,
			AvgFillPrice:    pos.AvgPrice,
			OpeningQuantity: opening,
			ClosingQuantity: closing,
			CreatedAt:       time.Now().UTC(),
		}
		e.orders = append(e.orders, c)
		e.allocateLocked(c)
		corrected = true
	}
	// the reconciliation cycle ends here; priority ids do not survive it
	e.priority = e.priority[:0]
	var list []broker.Order
	if corrected {
		list = e.snapshotLocked()
	}
	e.ordersMu.Unlock()

	if corrected {
		e.events.OrdersChanged(list)
	}
}

// Package engine implements the broker execution core: it owns the live
// Order and Position collections, matches opposing fills FIFO for cost
// basis, emulates server-side conditional orders and brackets, revalues
// profit and margin on every tick, and reconciles venue-reported truth
// against internal state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/brokerd/broker"
	"github.com/rustyeddy/brokerd/internal/id"
	"github.com/rustyeddy/brokerd/market"
)

// bracket holds stop-loss/take-profit offsets that arrived before the order
// they belong to. Consumed the moment the order is created or updated.
type bracket struct {
	stopLoss   decimal.Decimal
	takeProfit decimal.Decimal
	serverSide bool
}

type Engine struct {
	securities market.Securities
	venue      broker.Venue
	events     broker.Events
	ticks      *market.TickStore
	rates      *market.Rates
	currency   string

	accountMu sync.Mutex
	account   broker.AccountInfo

	ordersMu sync.Mutex
	orders   []*broker.Order
	// priority ids float to the front of the FIFO allocator's opposing list
	// as a stable secondary tie-break; cleared at every tick boundary and at
	// the end of each reconciliation cycle.
	priority []string

	positionsMu sync.Mutex
	positions   map[string]*broker.Position

	pendingMu       sync.Mutex
	pendingBrackets map[string]bracket

	workers    int
	tickBuffer int
	stateMu    sync.Mutex // serializes Start and Stop
	started    atomic.Bool
	tickCh     chan market.Tick
	done       chan struct{}
	wg         sync.WaitGroup
}

type Option func(*Engine)

// WithWorkers sets the size of the tick worker pool.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithTickStore shares a tick cache with collaborators (a simulated venue
// fills off the same cache the engine values against).
func WithTickStore(ts *market.TickStore) Option {
	return func(e *Engine) {
		if ts != nil {
			e.ticks = ts
		}
	}
}

func New(account broker.AccountInfo, securities market.Securities, venue broker.Venue, events broker.Events, opts ...Option) *Engine {
	if events == nil {
		events = broker.NopEvents{}
	}
	account.Equity = account.Balance
	e := &Engine{
		securities:      securities,
		venue:           venue,
		events:          events,
		ticks:           market.NewTickStore(),
		currency:        account.Currency,
		account:         account,
		positions:       make(map[string]*broker.Position),
		pendingBrackets: make(map[string]bracket),
		workers:         4,
		tickBuffer:      256,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rates = market.NewRates(securities, e.ticks)
	return e
}

// Ticks exposes the live tick cache.
func (e *Engine) Ticks() *market.TickStore { return e.ticks }

func (e *Engine) Login(ctx context.Context, creds broker.Credentials) error {
	return e.venue.Login(ctx, creds)
}

func (e *Engine) Start(ctx context.Context) error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.started.Load() {
		return errors.New("engine already started")
	}
	e.tickCh = make(chan market.Tick, e.tickBuffer)
	e.done = make(chan struct{})
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.tickLoop()
	}
	if err := e.venue.Start(ctx); err != nil {
		close(e.done)
		e.wg.Wait()
		return fmt.Errorf("start venue: %w", err)
	}
	// published last: a producer that observes started may touch the
	// channels immediately
	e.started.Store(true)
	return nil
}

func (e *Engine) Stop(ctx context.Context) error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if !e.started.CompareAndSwap(true, false) {
		return nil
	}
	close(e.done)
	e.wg.Wait()
	return e.venue.Stop(ctx)
}

func (e *Engine) tickLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case t := <-e.tickCh:
			e.dispatch(func() { e.handleTick(t) })
		}
	}
}

// dispatch is the per-event failure boundary: a panic while processing one
// tick or one report is reported and dropped, never propagated, so the
// engine stays usable for the next event.
func (e *Engine) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.events.EngineError(fmt.Errorf("execution engine: recovered: %v", r))
		}
	}()
	fn()
}

// OnNewTick enqueues a tick for the worker pool. Valuation is idempotent,
// so out-of-order delivery across workers is tolerated.
func (e *Engine) OnNewTick(symbol string, bid, ask decimal.Decimal, ts time.Time) {
	if !e.started.Load() {
		return
	}
	select {
	case e.tickCh <- market.Tick{Symbol: symbol, Bid: bid, Ask: ask, Time: ts}:
	case <-e.done:
	}
}

func (e *Engine) handleTick(t market.Tick) {
	e.ticks.Set(t)
	sec, ok := e.securities[t.Symbol]
	if !ok {
		return
	}
	rate, _ := e.rates.Rate(sec.Currency, e.currency)
	now := time.Now().UTC()

	e.ordersMu.Lock()
	e.revalueOrdersLocked(sec, t, rate)
	acts := e.evaluateLocked(t.Symbol, now)
	// allocation priority never survives a tick boundary
	e.priority = e.priority[:0]
	var orderList []broker.Order
	if len(acts.fired)+len(acts.expired) > 0 {
		orderList = e.snapshotLocked()
	}
	e.ordersMu.Unlock()

	e.positionsMu.Lock()
	pos, hasPos := e.revaluePositionLocked(sec, t, rate)
	e.positionsMu.Unlock()

	// account aggregation runs outside the collection sections so
	// notification callbacks can re-enter the engine safely
	acct := e.aggregateAccount()
	e.events.AccountChanged(acct)
	if hasPos {
		e.events.PositionChanged(pos)
	}
	if orderList != nil {
		e.events.OrdersChanged(orderList)
	}
	e.actOn(acts)
}

// PlaceOrder admits an order into the engine. Rejections are reported
// through the OrderRejected notification, never returned.
func (e *Engine) PlaceOrder(o broker.Order) {
	if reason := e.validateOrder(&o); reason != "" {
		e.events.OrderRejected(o, reason)
		return
	}
	if o.ClientID == "" {
		o.ClientID = id.New()
	}
	if o.TIF == "" {
		o.TIF = broker.TIFGoodTillCancelled
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	e.insert(o)

	if o.ServerSide && o.Kind.Conditional() {
		// held locally; the conditional evaluator fires it off ticks
		return
	}
	if err := e.venue.PlaceOrder(o); err != nil {
		e.ordersMu.Lock()
		if live := e.findLocked(o.ID, o.ClientID); live != nil {
			e.removeLocked(live)
		}
		list := e.snapshotLocked()
		e.ordersMu.Unlock()
		e.events.OrderRejected(o, err.Error())
		e.events.OrdersChanged(list)
	}
}

func (e *Engine) insert(o broker.Order) {
	e.ordersMu.Lock()
	cp := o
	e.orders = append(e.orders, &cp)
	list := e.snapshotLocked()
	e.ordersMu.Unlock()
	e.events.OrdersChanged(list)
}

// CancelOrder cancels a locally held conditional order directly, anything
// else is delegated to the venue.
func (e *Engine) CancelOrder(o broker.Order) {
	if !e.started.Load() {
		e.events.OrderRejected(o, "Broker is not started")
		return
	}
	e.ordersMu.Lock()
	live := e.findLocked(o.ID, o.ClientID)
	if live != nil && live.ServerSide && live.Kind.Conditional() {
		live.CancelledQuantity = live.Quantity.Sub(live.FilledQuantity)
		live.OpenQuantity = decimal.Zero
		cp := *live
		if !live.IsActive() {
			e.removeLocked(live)
		}
		list := e.snapshotLocked()
		e.ordersMu.Unlock()
		e.events.HistoricalOrder(cp, broker.HistoryCancelled)
		e.events.OrdersChanged(list)
		return
	}
	e.ordersMu.Unlock()
	if err := e.venue.CancelOrder(o); err != nil {
		e.events.EngineError(fmt.Errorf("cancel order %s: %w", o.ClientID, err))
	}
}

// ModifyOrder attaches or replaces the stop-loss/take-profit offsets on an
// order. When the order is not known yet the offsets are parked in the
// pending bracket table and applied on creation.
func (e *Engine) ModifyOrder(o broker.Order, stopLoss, takeProfit decimal.Decimal, serverSide bool) {
	if !e.started.Load() {
		e.events.OrderRejected(o, "Broker is not started")
		return
	}
	e.ordersMu.Lock()
	live := e.findLocked(o.ID, o.ClientID)
	if live == nil {
		e.ordersMu.Unlock()
		key := o.ClientID
		if key == "" {
			key = o.ID
		}
		e.stashBracket(key, bracket{stopLoss: stopLoss, takeProfit: takeProfit, serverSide: serverSide})
		return
	}
	live.StopLoss = stopLoss
	live.TakeProfit = takeProfit
	live.ServerSide = serverSide
	cp := *live
	e.ordersMu.Unlock()
	e.events.OrdersUpdated([]broker.Order{cp})
	if !serverSide {
		if err := e.venue.ModifyOrder(cp); err != nil {
			e.events.EngineError(fmt.Errorf("modify order %s: %w", cp.ClientID, err))
		}
	}
}

// ClosePosition flattens the position in one symbol with a market order.
func (e *Engine) ClosePosition(symbol string) {
	e.positionsMu.Lock()
	p, ok := e.positions[symbol]
	var req broker.Order
	if ok {
		req = broker.Order{
			AccountID: e.account.ID,
			Symbol:    symbol,
			Side:      p.Side.Opposite(),
			Kind:      broker.KindMarket,
			Quantity:  p.Quantity,
		}
	}
	e.positionsMu.Unlock()
	if ok {
		e.PlaceOrder(req)
	}
}

func (e *Engine) CloseAllPositions() {
	e.positionsMu.Lock()
	symbols := make([]string, 0, len(e.positions))
	for s := range e.positions {
		symbols = append(symbols, s)
	}
	e.positionsMu.Unlock()
	for _, s := range symbols {
		e.ClosePosition(s)
	}
}

// Orders returns a value snapshot of the live order collection.
func (e *Engine) Orders() []broker.Order {
	e.ordersMu.Lock()
	defer e.ordersMu.Unlock()
	return e.snapshotLocked()
}

// Positions returns a value snapshot of the live positions.
func (e *Engine) Positions() []broker.Position {
	e.positionsMu.Lock()
	defer e.positionsMu.Unlock()
	return e.positionsLocked()
}

// Account returns the current account aggregate.
func (e *Engine) Account() broker.AccountInfo {
	e.accountMu.Lock()
	defer e.accountMu.Unlock()
	return e.account
}

func (e *Engine) snapshotLocked() []broker.Order {
	list := make([]broker.Order, 0, len(e.orders))
	for _, o := range e.orders {
		list = append(list, *o)
	}
	return list
}

func (e *Engine) positionsLocked() []broker.Position {
	list := make([]broker.Position, 0, len(e.positions))
	for _, p := range e.positions {
		list = append(list, *p)
	}
	return list
}

func (e *Engine) findLocked(orderID, clientID string) *broker.Order {
	for _, o := range e.orders {
		if orderID != "" && o.ID == orderID {
			return o
		}
		if clientID != "" && o.ClientID == clientID {
			return o
		}
	}
	return nil
}

func (e *Engine) removeLocked(o *broker.Order) {
	for i, cur := range e.orders {
		if cur == o {
			e.orders = append(e.orders[:i], e.orders[i+1:]...)
			return
		}
	}
}

func orderKey(o *broker.Order) string {
	if o.ID != "" {
		return o.ID
	}
	return o.ClientID
}

func (e *Engine) stashBracket(key string, b bracket) {
	if key == "" {
		return
	}
	e.pendingMu.Lock()
	e.pendingBrackets[key] = b
	e.pendingMu.Unlock()
}

// takeBracket consumes a parked bracket for any of the given keys.
func (e *Engine) takeBracket(keys ...string) (bracket, bool) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	for _, k := range keys {
		if k == "" {
			continue
		}
		if b, ok := e.pendingBrackets[k]; ok {
			delete(e.pendingBrackets, k)
			return b, true
		}
	}
	return bracket{}, false
}

package engine

import (
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/brokerd/broker"
	"github.com/rustyeddy/brokerd/market"
)

var (
	ten        = decimal.NewFromInt(10)
	marginUnit = decimal.NewFromFloat(0.01) // margin rate is quoted in percent
)

// revalueOrdersLocked refreshes CurrentPrice, Profit and PipProfit for
// every order on the ticked symbol. Orders without open exposure still get
// CurrentPrice updated (ask for buys, bid for sells) so the conditional
// evaluator sees fresh data. Caller holds ordersMu.
func (e *Engine) revalueOrdersLocked(sec market.Security, t market.Tick, rate decimal.Decimal) {
	for _, o := range e.orders {
		if o.Symbol != t.Symbol {
			continue
		}
		if !o.OpenQuantity.IsPositive() {
			if o.Side == broker.SideBuy {
				o.CurrentPrice = t.Ask
			} else {
				o.CurrentPrice = t.Bid
			}
			continue
		}
		var diff decimal.Decimal
		if o.Side == broker.SideBuy {
			o.CurrentPrice = t.Bid
			diff = t.Bid.Sub(o.AvgFillPrice)
		} else {
			o.CurrentPrice = t.Ask
			diff = o.AvgFillPrice.Sub(t.Ask)
		}
		base := diff.Mul(sec.ContractSize).Mul(o.OpenQuantity)
		o.Profit = base.Mul(rate)
		o.PipProfit = base.Mul(ten)
	}
}

// revaluePositionLocked refreshes the symbol's position, if any, and
// returns a value snapshot of it. Caller holds positionsMu.
func (e *Engine) revaluePositionLocked(sec market.Security, t market.Tick, rate decimal.Decimal) (broker.Position, bool) {
	p, ok := e.positions[t.Symbol]
	if !ok {
		return broker.Position{}, false
	}
	var diff decimal.Decimal
	if p.Side == broker.SideBuy {
		p.CurrentPrice = t.Bid
		diff = t.Bid.Sub(p.AvgPrice)
	} else {
		p.CurrentPrice = t.Ask
		diff = p.AvgPrice.Sub(t.Ask)
	}
	base := diff.Mul(sec.ContractSize).Mul(p.Quantity)
	p.Profit = base.Mul(rate)
	p.PipProfit = base.Mul(ten)
	p.Margin = p.Quantity.Mul(p.CurrentPrice).
		Mul(sec.ContractSize).
		Mul(rate).
		Mul(sec.MarginRate).
		Mul(marginUnit)
	return *p, true
}

// aggregateAccount recomputes the account-level margin, profit and equity
// from the live positions. Runs after the per-symbol valuation sections are
// released; equity is always balance - margin + profit.
func (e *Engine) aggregateAccount() broker.AccountInfo {
	margin := decimal.Zero
	profit := decimal.Zero
	e.positionsMu.Lock()
	for _, p := range e.positions {
		margin = margin.Add(p.Margin)
		profit = profit.Add(p.Profit)
	}
	e.positionsMu.Unlock()

	e.accountMu.Lock()
	e.account.Margin = margin
	e.account.Profit = profit
	e.account.Equity = e.account.Balance.Sub(margin).Add(profit)
	cp := e.account
	e.accountMu.Unlock()
	return cp
}

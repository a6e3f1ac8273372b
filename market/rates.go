package market

import "github.com/shopspring/decimal"

// Reference currencies tried, in order, when no direct quote exists.
var referenceCurrencies = [...]string{"USD", "GBP", "EUR"}

var one = decimal.NewFromInt(1)

// Rates resolves conversion factors between currencies from the live tick
// cache, triangulating through the reference currencies when no direct
// quote is available.
type Rates struct {
	securities Securities
	ticks      *TickStore
}

func NewRates(securities Securities, ticks *TickStore) *Rates {
	return &Rates{securities: securities, ticks: ticks}
}

// Rate returns the factor converting one unit of from into to. When no
// quoted path exists it returns (1, false): callers that cannot tolerate an
// unconverted amount can check ok, everyone else inherits the historical
// best-effort behavior of treating the amount as already converted.
func (r *Rates) Rate(from, to string) (decimal.Decimal, bool) {
	return r.rate(from, to, 0)
}

func (r *Rates) rate(from, to string, depth int) (decimal.Decimal, bool) {
	if from == to {
		return one, true
	}
	if f, ok := r.direct(from, to); ok {
		return f, true
	}
	if depth >= 2 {
		return one, false
	}
	for _, ref := range referenceCurrencies {
		if ref == from || ref == to {
			continue
		}
		a, ok := r.rate(from, ref, depth+1)
		if !ok {
			continue
		}
		b, ok := r.rate(ref, to, depth+1)
		if !ok {
			continue
		}
		return a.Mul(b), true
	}
	return one, false
}

// direct looks up a quoted rate from the tick cache: a security quoting
// from/to gives its mid, to/from gives the reciprocal.
func (r *Rates) direct(from, to string) (decimal.Decimal, bool) {
	sec, inverse, ok := r.securities.ByPair(from, to)
	if !ok {
		return one, false
	}
	tick, err := r.ticks.Get(sec.Symbol)
	if err != nil {
		return one, false
	}
	mid := tick.Mid()
	if mid.IsZero() {
		return one, false
	}
	if inverse {
		return one.Div(mid), true
	}
	return mid, true
}

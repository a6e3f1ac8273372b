package market

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Tick is one top-of-book quote for a symbol.
type Tick struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Time   time.Time
}

func (t Tick) Mid() decimal.Decimal {
	return t.Bid.Add(t.Ask).Div(decimal.NewFromInt(2))
}

func (t Tick) Spread() decimal.Decimal {
	return t.Ask.Sub(t.Bid)
}

var ErrNoTick = errors.New("no tick for symbol")

// TickStore caches the latest tick per symbol. It is the live price cache
// consumed by valuation and by the currency rate resolver.
type TickStore struct {
	mu    sync.RWMutex
	ticks map[string]Tick
}

func NewTickStore() *TickStore {
	return &TickStore{ticks: make(map[string]Tick)}
}

func (s *TickStore) Set(t Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[t.Symbol] = t
}

func (s *TickStore) Get(symbol string) (Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.ticks[symbol]
	if !ok {
		return Tick{}, ErrNoTick
	}
	return t, nil
}

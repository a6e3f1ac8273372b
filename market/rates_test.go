package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testSecurities() Securities {
	return Securities{
		"EURUSD": {
			Symbol:        "EURUSD",
			BaseCurrency:  "EUR",
			QuoteCurrency: "USD",
			Currency:      "USD",
			ContractSize:  decimal.NewFromInt(1),
		},
		"GBPUSD": {
			Symbol:        "GBPUSD",
			BaseCurrency:  "GBP",
			QuoteCurrency: "USD",
			Currency:      "USD",
			ContractSize:  decimal.NewFromInt(1),
		},
	}
}

func setTick(ts *TickStore, symbol string, bid, ask float64) {
	ts.Set(Tick{
		Symbol: symbol,
		Bid:    decimal.NewFromFloat(bid),
		Ask:    decimal.NewFromFloat(ask),
		Time:   time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
	})
}

func TestRateSameCurrency(t *testing.T) {
	t.Parallel()

	r := NewRates(testSecurities(), NewTickStore())
	f, ok := r.Rate("USD", "USD")
	assert.True(t, ok)
	assert.True(t, f.Equal(decimal.NewFromInt(1)))
}

func TestRateDirect(t *testing.T) {
	t.Parallel()

	ts := NewTickStore()
	setTick(ts, "EURUSD", 1.10, 1.10)
	r := NewRates(testSecurities(), ts)

	f, ok := r.Rate("EUR", "USD")
	assert.True(t, ok)
	assert.True(t, f.Equal(decimal.NewFromFloat(1.10)), "got %s", f)
}

func TestRateInverse(t *testing.T) {
	t.Parallel()

	ts := NewTickStore()
	setTick(ts, "EURUSD", 1.25, 1.25)
	r := NewRates(testSecurities(), ts)

	f, ok := r.Rate("USD", "EUR")
	assert.True(t, ok)
	assert.True(t, f.Equal(decimal.NewFromFloat(0.8)), "got %s", f)
}

func TestRateTriangulatesThroughUSD(t *testing.T) {
	t.Parallel()

	ts := NewTickStore()
	setTick(ts, "EURUSD", 1.10, 1.10)
	setTick(ts, "GBPUSD", 1.25, 1.25)
	r := NewRates(testSecurities(), ts)

	// EUR -> USD -> GBP: 1.10 * (1/1.25) = 0.88
	f, ok := r.Rate("EUR", "GBP")
	assert.True(t, ok)
	assert.True(t, f.Equal(decimal.NewFromFloat(0.88)), "got %s", f)
}

func TestRateFallsBackToOneWithoutPath(t *testing.T) {
	t.Parallel()

	// only EUR/USD quoted: no way to reach GBP
	ts := NewTickStore()
	setTick(ts, "EURUSD", 1.10, 1.10)
	r := NewRates(testSecurities(), ts)

	f, ok := r.Rate("EUR", "GBP")
	assert.False(t, ok)
	assert.True(t, f.Equal(decimal.NewFromInt(1)))
}

func TestRateNoTickIsNotAPath(t *testing.T) {
	t.Parallel()

	// security exists but no live tick yet
	r := NewRates(testSecurities(), NewTickStore())
	f, ok := r.Rate("EUR", "USD")
	assert.False(t, ok)
	assert.True(t, f.Equal(decimal.NewFromInt(1)))
}

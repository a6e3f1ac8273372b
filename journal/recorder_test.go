package journal

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/brokerd/broker"
)

// memJournal collects records in memory for recorder tests.
type memJournal struct {
	orders []OrderRecord
	equity []EquitySnapshot
	err    error
}

func (m *memJournal) RecordOrder(r OrderRecord) error {
	m.orders = append(m.orders, r)
	return m.err
}

func (m *memJournal) RecordEquity(e EquitySnapshot) error {
	m.equity = append(m.equity, e)
	return m.err
}

func (m *memJournal) Close() error { return nil }

func TestRecorderPersistsHistoricalOrders(t *testing.T) {
	t.Parallel()

	mem := &memJournal{}
	r := NewRecorder(mem)

	r.HistoricalOrder(broker.Order{
		ID:             "V-1",
		ClientID:       "c-1",
		Symbol:         "EURUSD",
		Side:           broker.SideBuy,
		Kind:           broker.KindMarket,
		Quantity:       decimal.NewFromInt(10),
		FilledQuantity: decimal.NewFromInt(10),
	}, broker.HistoryFilled)

	assert.Len(t, mem.orders, 1)
	assert.Equal(t, "Filled", mem.orders[0].Status)
	assert.Equal(t, "Buy", mem.orders[0].Side)
	assert.False(t, mem.orders[0].RecordedAt.IsZero())
}

func TestRecorderPersistsEquityCurve(t *testing.T) {
	t.Parallel()

	mem := &memJournal{}
	r := NewRecorder(mem)

	r.AccountChanged(broker.AccountInfo{
		Currency: "USD",
		Balance:  decimal.NewFromInt(100000),
		Equity:   decimal.NewFromInt(100000),
	})

	assert.Len(t, mem.equity, 1)
	assert.Equal(t, "USD", mem.equity[0].Currency)
}

func TestRecorderReportsWriteFailures(t *testing.T) {
	t.Parallel()

	mem := &memJournal{err: errors.New("disk full")}
	r := NewRecorder(mem)

	var got error
	r.OnError = func(err error) { got = err }
	r.HistoricalOrder(broker.Order{}, broker.HistoryCancelled)

	assert.EqualError(t, got, "disk full")
}

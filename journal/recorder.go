package journal

import (
	"time"

	"github.com/rustyeddy/brokerd/broker"
)

// Recorder bridges the engine's notification surface to a Journal:
// historical orders and account changes are persisted, everything else is
// ignored. Wire it into the engine through broker.Multi.
type Recorder struct {
	broker.NopEvents
	journal Journal

	// OnError, when set, receives journal write failures. Notifications are
	// fire-and-forget so there is nowhere to return them.
	OnError func(error)
}

func NewRecorder(j Journal) *Recorder {
	return &Recorder{journal: j}
}

func (r *Recorder) HistoricalOrder(o broker.Order, status broker.HistoryStatus) {
	err := r.journal.RecordOrder(OrderRecord{
		OrderID:           o.ID,
		ClientID:          o.ClientID,
		AccountID:         o.AccountID,
		Symbol:            o.Symbol,
		Side:              string(o.Side),
		Kind:              string(o.Kind),
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity,
		CancelledQuantity: o.CancelledQuantity,
		AvgFillPrice:      o.AvgFillPrice,
		Commission:        o.Commission,
		Profit:            o.Profit,
		Status:            string(status),
		CreatedAt:         o.CreatedAt,
		RecordedAt:        time.Now().UTC(),
	})
	r.report(err)
}

func (r *Recorder) AccountChanged(a broker.AccountInfo) {
	err := r.journal.RecordEquity(EquitySnapshot{
		Time:     time.Now().UTC(),
		Currency: a.Currency,
		Balance:  a.Balance,
		Margin:   a.Margin,
		Profit:   a.Profit,
		Equity:   a.Equity,
	})
	r.report(err)
}

func (r *Recorder) report(err error) {
	if err != nil && r.OnError != nil {
		r.OnError(err)
	}
}

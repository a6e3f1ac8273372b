package cmd

import (
	"log/slog"

	"github.com/rustyeddy/brokerd/broker"
)

// logEvents streams engine notifications to the structured logger.
type logEvents struct {
	broker.NopEvents
	log *slog.Logger
}

func (l *logEvents) AccountChanged(a broker.AccountInfo) {
	l.log.Debug("account",
		"balance", a.Balance.String(),
		"margin", a.Margin.String(),
		"profit", a.Profit.String(),
		"equity", a.Equity.String(),
	)
}

func (l *logEvents) OrderRejected(o broker.Order, reason string) {
	l.log.Warn("order rejected",
		"client_id", o.ClientID,
		"symbol", o.Symbol,
		"reason", reason,
	)
}

func (l *logEvents) HistoricalOrder(o broker.Order, status broker.HistoryStatus) {
	l.log.Info("order "+string(status),
		"client_id", o.ClientID,
		"order_id", o.ID,
		"symbol", o.Symbol,
		"side", string(o.Side),
		"filled", o.FilledQuantity.String(),
		"avg_price", o.AvgFillPrice.String(),
	)
}

func (l *logEvents) PositionChanged(p broker.Position) {
	l.log.Debug("position",
		"symbol", p.Symbol,
		"side", string(p.Side),
		"quantity", p.Quantity.String(),
		"profit", p.Profit.String(),
	)
}

func (l *logEvents) EngineError(err error) {
	l.log.Error("engine error", "err", err)
}

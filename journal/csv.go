package journal

import (
	"encoding/csv"
	"os"
	"time"
)

type CSV struct {
	orders *csv.Writer
	equity *csv.Writer
	of, ef *os.File
}

func NewCSV(ordersPath, equityPath string) (*CSV, error) {
	of, err := os.Create(ordersPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		of.Close()
		return nil, err
	}

	ow := csv.NewWriter(of)
	ew := csv.NewWriter(ef)

	if err := writeHeaders(ow, ew); err != nil {
		of.Close()
		ef.Close()
		return nil, err
	}

	return &CSV{orders: ow, equity: ew, of: of, ef: ef}, nil
}

func writeHeaders(ow, ew *csv.Writer) error {
	if err := ow.Write([]string{
		"order_id", "client_id", "account_id", "symbol", "side", "kind",
		"quantity", "filled_quantity", "cancelled_quantity",
		"avg_fill_price", "commission", "profit", "status",
		"created_at", "recorded_at",
	}); err != nil {
		return err
	}
	if err := ew.Write([]string{
		"time", "currency", "balance", "margin", "profit", "equity",
	}); err != nil {
		return err
	}

	ow.Flush()
	if err := ow.Error(); err != nil {
		return err
	}
	ew.Flush()
	return ew.Error()
}

func (j *CSV) RecordOrder(r OrderRecord) error {
	if err := j.orders.Write([]string{
		r.OrderID,
		r.ClientID,
		r.AccountID,
		r.Symbol,
		r.Side,
		r.Kind,
		r.Quantity.String(),
		r.FilledQuantity.String(),
		r.CancelledQuantity.String(),
		r.AvgFillPrice.String(),
		r.Commission.String(),
		r.Profit.String(),
		r.Status,
		r.CreatedAt.Format(time.RFC3339),
		r.RecordedAt.Format(time.RFC3339),
	}); err != nil {
		return err
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSV) RecordEquity(e EquitySnapshot) error {
	if err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		e.Currency,
		e.Balance.String(),
		e.Margin.String(),
		e.Profit.String(),
		e.Equity.String(),
	}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.of.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

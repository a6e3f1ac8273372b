package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordOrder(r OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO order_history
		(order_id, client_id, account_id, symbol, side, kind,
		 quantity, filled_quantity, cancelled_quantity, avg_fill_price,
		 commission, profit, status, created_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.OrderID, r.ClientID, r.AccountID, r.Symbol, r.Side, r.Kind,
		r.Quantity.String(), r.FilledQuantity.String(),
		r.CancelledQuantity.String(), r.AvgFillPrice.String(),
		r.Commission.String(), r.Profit.String(),
		r.Status, r.CreatedAt, r.RecordedAt,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, currency, balance, margin, profit, equity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Time, e.Currency, e.Balance.String(), e.Margin.String(),
		e.Profit.String(), e.Equity.String(),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

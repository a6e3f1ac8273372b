package journal

// Decimal columns are stored as TEXT so values round-trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS order_history (
	order_id TEXT NOT NULL,
	client_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	kind TEXT NOT NULL,
	quantity TEXT NOT NULL,
	filled_quantity TEXT NOT NULL,
	cancelled_quantity TEXT NOT NULL,
	avg_fill_price TEXT NOT NULL,
	commission TEXT NOT NULL,
	profit TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	recorded_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	currency TEXT NOT NULL,
	balance TEXT NOT NULL,
	margin TEXT NOT NULL,
	profit TEXT NOT NULL,
	equity TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_history_client ON order_history(client_id);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`

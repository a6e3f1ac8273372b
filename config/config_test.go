package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Len(t, cfg.Securities, 2)
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "brokerd.yaml")
	data := `
account:
  id: ACC-9
  currency: EUR
  balance: 50000
engine:
  workers: 2
securities:
  - symbol: EURUSD
    base_currency: EUR
    quote_currency: USD
    contract_size: 1
    margin_rate: 2
    price_increment: 0.0001
journal:
  type: sqlite
  db_path: ./journal.db
`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "ACC-9", cfg.Account.ID)
	assert.Equal(t, "EUR", cfg.Account.Currency)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
}

func TestLoadFromJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "brokerd.json")
	data := `{
  "account": {"id": "ACC-9", "currency": "USD", "balance": 100000},
  "securities": [
    {"symbol": "EURUSD", "base_currency": "EUR", "quote_currency": "USD",
     "contract_size": 1, "margin_rate": 2, "price_increment": 0.0001}
  ]
}`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "ACC-9", cfg.Account.ID)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "brokerd.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("account:\n  currency: USD\n"), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		errStr string
	}{
		{"missing currency", func(c *Config) { c.Account.Currency = "" }, "account.currency"},
		{"zero balance", func(c *Config) { c.Account.Balance = 0 }, "account.balance"},
		{"no securities", func(c *Config) { c.Securities = nil }, "security"},
		{"blank symbol", func(c *Config) { c.Securities[0].Symbol = " " }, "symbol"},
		{"zero contract size", func(c *Config) { c.Securities[0].ContractSize = 0 }, "contract_size"},
		{"negative margin rate", func(c *Config) { c.Securities[0].MarginRate = -1 }, "margin_rate"},
		{"zero price increment", func(c *Config) { c.Securities[0].PriceIncrement = 0 }, "price_increment"},
		{"unknown journal type", func(c *Config) { c.Journal.Type = "postgres" }, "journal.type"},
		{"csv without files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }, "orders_file"},
		{"sqlite without path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }, "db_path"},
		{"negative workers", func(c *Config) { c.Engine.Workers = -1 }, "workers"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tc.errStr)
		})
	}
}

func TestSecuritySetDefaultsCurrency(t *testing.T) {
	t.Parallel()

	cfg := Default()
	set := cfg.SecuritySet()

	sec, ok := set["EURUSD"]
	assert.True(t, ok)
	assert.Equal(t, "USD", sec.Currency)
	assert.Equal(t, "2", sec.MarginRate.String())
	assert.Equal(t, "1", sec.ContractSize.String())
}

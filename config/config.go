// Package config loads the broker configuration: account identity, the
// tradable securities table, journaling, and engine tuning.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/brokerd/market"
)

type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Engine     EngineConfig     `json:"engine" yaml:"engine"`
	Securities []SecurityConfig `json:"securities" yaml:"securities"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}

type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
	Broker   string  `json:"broker,omitempty" yaml:"broker,omitempty"`
	Datafeed string  `json:"datafeed,omitempty" yaml:"datafeed,omitempty"`
}

type EngineConfig struct {
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

type SecurityConfig struct {
	Symbol        string  `json:"symbol" yaml:"symbol"`
	BaseCurrency  string  `json:"base_currency" yaml:"base_currency"`
	QuoteCurrency string  `json:"quote_currency" yaml:"quote_currency"`
	// Currency the instrument's P&L is denominated in; defaults to the
	// quote currency.
	Currency       string  `json:"currency,omitempty" yaml:"currency,omitempty"`
	ContractSize   float64 `json:"contract_size" yaml:"contract_size"`
	MarginRate     float64 `json:"margin_rate" yaml:"margin_rate"` // percent
	PriceIncrement float64 `json:"price_increment" yaml:"price_increment"`
}

type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	OrdersFile string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if len(c.Securities) == 0 {
		return fmt.Errorf("at least one security is required")
	}
	for i, s := range c.Securities {
		if strings.TrimSpace(s.Symbol) == "" {
			return fmt.Errorf("securities[%d].symbol is required", i)
		}
		if s.ContractSize <= 0 {
			return fmt.Errorf("security %s: contract_size must be positive", s.Symbol)
		}
		if s.MarginRate < 0 {
			return fmt.Errorf("security %s: margin_rate must not be negative", s.Symbol)
		}
		if s.PriceIncrement <= 0 {
			return fmt.Errorf("security %s: price_increment must be positive", s.Symbol)
		}
	}
	switch c.Journal.Type {
	case "", "csv", "sqlite":
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.OrdersFile == "" || c.Journal.EquityFile == "") {
		return fmt.Errorf("journal orders_file and equity_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative")
	}
	return nil
}

// Securities converts the configured security table into the engine's
// read-only set.
func (c *Config) SecuritySet() market.Securities {
	set := make(market.Securities, len(c.Securities))
	for _, s := range c.Securities {
		currency := s.Currency
		if currency == "" {
			currency = s.QuoteCurrency
		}
		set[s.Symbol] = market.Security{
			Symbol:         s.Symbol,
			BaseCurrency:   s.BaseCurrency,
			QuoteCurrency:  s.QuoteCurrency,
			Currency:       currency,
			ContractSize:   decimal.NewFromFloat(s.ContractSize),
			MarginRate:     decimal.NewFromFloat(s.MarginRate),
			PriceIncrement: decimal.NewFromFloat(s.PriceIncrement),
		}
	}
	return set
}

// Default returns a configuration with sensible demo defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "SIM-001",
			Currency: "USD",
			Balance:  100000,
			Broker:   "sim",
			Datafeed: "sim",
		},
		Engine: EngineConfig{Workers: 4},
		Securities: []SecurityConfig{
			{
				Symbol:         "EURUSD",
				BaseCurrency:   "EUR",
				QuoteCurrency:  "USD",
				ContractSize:   1,
				MarginRate:     2,
				PriceIncrement: 0.0001,
			},
			{
				Symbol:         "GBPUSD",
				BaseCurrency:   "GBP",
				QuoteCurrency:  "USD",
				ContractSize:   1,
				MarginRate:     2,
				PriceIncrement: 0.0001,
			},
		},
		Journal: JournalConfig{
			Type:       "csv",
			OrdersFile: "./orders.csv",
			EquityFile: "./equity.csv",
		},
	}
}

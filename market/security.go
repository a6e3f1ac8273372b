package market

import "github.com/shopspring/decimal"

// Security describes one tradable instrument. The set of securities is
// supplied by the datafeed at construction time and treated as read-only.
type Security struct {
	Symbol        string
	BaseCurrency  string
	QuoteCurrency string

	// Currency is the currency profit and commission are denominated in
	// before conversion to the account currency. For FX pairs this is the
	// quote currency.
	Currency string

	ContractSize   decimal.Decimal
	MarginRate     decimal.Decimal // percent, applied as rate*0.01
	PriceIncrement decimal.Decimal
}

type Securities map[string]Security

// ByPair finds a security quoting the base/quote currency pair, in either
// direction. inverse is true when the match is quote/base.
func (s Securities) ByPair(base, quote string) (Security, bool, bool) {
	for _, sec := range s {
		if sec.BaseCurrency == base && sec.QuoteCurrency == quote {
			return sec, false, true
		}
	}
	for _, sec := range s {
		if sec.BaseCurrency == quote && sec.QuoteCurrency == base {
			return sec, true, true
		}
	}
	return Security{}, false, false
}

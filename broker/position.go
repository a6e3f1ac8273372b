package broker

import "github.com/shopspring/decimal"

// Position is the net exposure in one symbol. Quantity is always positive;
// direction is carried by Side. A position whose quantity reaches zero is
// removed from the live collection, never kept at zero.
type Position struct {
	Symbol       string
	Side         Side
	Quantity     decimal.Decimal
	AvgPrice     decimal.Decimal
	CurrentPrice decimal.Decimal
	Profit       decimal.Decimal
	PipProfit    decimal.Decimal
	Margin       decimal.Decimal
}

// SignedQuantity is positive for long positions and negative for short.
func (p *Position) SignedQuantity() decimal.Decimal {
	if p.Side == SideSell {
		return p.Quantity.Neg()
	}
	return p.Quantity
}

// AccountInfo is the account-level aggregate. Margin and Profit are sums
// over the live positions; Equity is always Balance - Margin + Profit.
type AccountInfo struct {
	ID       string
	Currency string
	Balance  decimal.Decimal
	Margin   decimal.Decimal
	Profit   decimal.Decimal
	Equity   decimal.Decimal

	BrokerName   string
	DatafeedName string
}

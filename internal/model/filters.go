package model

import "github.com/shopspring/decimal"

// StatusTrading is the exchange status of a tradable symbol.
const StatusTrading = "TRADING"

// SymbolFilters holds the trading rules the exchange enforces for one
// symbol: price/lot increments, absolute bounds, minimum notional and the
// percent-price band around mark price. Immutable once fetched; the cache
// replaces entries wholesale on refresh and never mutates them in place.
type SymbolFilters struct {
	Symbol         string
	Status         string
	TickSize       decimal.Decimal
	StepSize       decimal.Decimal
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	MinQty         decimal.Decimal
	MaxQty         decimal.Decimal
	MinNotional    decimal.Decimal
	MultiplierUp   decimal.Decimal
	MultiplierDown decimal.Decimal
}

// Tradable reports whether orders may currently be placed on the symbol.
func (f SymbolFilters) Tradable() bool {
	return f.Status == StatusTrading
}

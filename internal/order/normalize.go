package order

import (
	"futures-testnet-bot/internal/model"

	"github.com/shopspring/decimal"
)

// Snapping works on exact decimals via integer QuoRem against the
// increment. Tick and step sizes like 0.001 do not exist in binary
// floats, and float division here would eventually misprice an order.

// snapDown rounds v down to the nearest multiple of inc.
func snapDown(v, inc decimal.Decimal) decimal.Decimal {
	if inc.IsZero() {
		return v
	}
	q, _ := v.QuoRem(inc, 0)
	return q.Mul(inc)
}

// snapNearest rounds v to the nearest multiple of inc, ties away from
// zero (round half-up for the positive prices we deal in).
func snapNearest(v, inc decimal.Decimal) decimal.Decimal {
	if inc.IsZero() {
		return v
	}
	q, r := v.QuoRem(inc, 0)
	if r.Add(r).Cmp(inc) >= 0 {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q.Mul(inc)
}

// NormalizeQuantity rounds raw down to the step size. Rounding is always
// downward so a normalized order can never exceed the quantity the user
// asked for or the balance backing it. A result below minQty is an error,
// not a silent bump to the floor.
func NormalizeQuantity(raw decimal.Decimal, f model.SymbolFilters) (decimal.Decimal, error) {
	qty := snapDown(raw, f.StepSize)
	if qty.LessThan(f.MinQty) {
		return decimal.Zero, reject(ReasonBelowMinQty, f.Symbol, raw, f.MinQty,
			"quantity %s rounds to %s, below minimum %s (step %s)",
			raw, qty, f.MinQty, f.StepSize)
	}
	if f.MaxQty.IsPositive() && qty.GreaterThan(f.MaxQty) {
		return decimal.Zero, reject(ReasonQtyOutOfRange, f.Symbol, raw, f.MaxQty,
			"quantity %s above maximum %s", qty, f.MaxQty)
	}
	return qty, nil
}

// NormalizePrice rounds raw to the nearest tick, ties rounding up, then
// checks the exchange's absolute price bounds.
func NormalizePrice(raw decimal.Decimal, f model.SymbolFilters) (decimal.Decimal, error) {
	price := snapNearest(raw, f.TickSize)
	if price.LessThan(f.MinPrice) || (f.MaxPrice.IsPositive() && price.GreaterThan(f.MaxPrice)) {
		return decimal.Zero, reject(ReasonPriceOutOfRange, f.Symbol, raw, f.MinPrice,
			"price %s (tick-adjusted %s) outside allowed range [%s, %s]",
			raw, price, f.MinPrice, f.MaxPrice)
	}
	return price, nil
}

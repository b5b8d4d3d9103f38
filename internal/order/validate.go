package order

import (
	"futures-testnet-bot/internal/model"

	"github.com/shopspring/decimal"
)

// Validate runs the full filter check sequence against an intent and
// either returns the exchange-legal NormalizedOrder or a *Rejection.
//
// It is a pure function of its three inputs: no lookups, no side
// effects, short-circuit on the first violation. Checks run cheapest
// first; the deviation band comes last because marketPrice is the one
// input a caller had to pay a network round trip for.
func Validate(intent model.OrderIntent, f model.SymbolFilters, marketPrice decimal.Decimal) (model.NormalizedOrder, error) {
	var zero model.NormalizedOrder

	// 1. Structural sanity: tradable symbol, known side.
	if intent.Symbol == "" || intent.Symbol != f.Symbol || !f.Tradable() {
		return zero, reject(ReasonInvalidSymbolOrSide, intent.Symbol, decimal.Zero, decimal.Zero,
			"symbol %q is not tradable (status %q)", intent.Symbol, f.Status)
	}
	if intent.Side != model.SideBuy && intent.Side != model.SideSell {
		return zero, reject(ReasonInvalidSymbolOrSide, intent.Symbol, decimal.Zero, decimal.Zero,
			"side %q is not BUY or SELL", intent.Side)
	}

	// 2. Quantity snaps to the lot grid.
	qty, err := NormalizeQuantity(intent.Quantity, f)
	if err != nil {
		return zero, err
	}

	norm := model.NormalizedOrder{
		Symbol:      intent.Symbol,
		Side:        intent.Side,
		Type:        intent.Type,
		Quantity:    qty,
		TimeInForce: intent.TimeInForce,
		ReduceOnly:  intent.ReduceOnly,
	}

	switch intent.Type {
	case model.TypeLimit, model.TypeStopLimit:
		// 3. Limit price snaps to the tick grid.
		price, err := NormalizePrice(intent.Price, f)
		if err != nil {
			return zero, err
		}
		norm.Price = price

		// 4. Stop price snaps and must sit on the trigger side of market:
		// a sell stop fires on the way down, a buy stop on the way up.
		if intent.Type == model.TypeStopLimit {
			stop, err := NormalizePrice(intent.StopPrice, f)
			if err != nil {
				return zero, err
			}
			if intent.Side == model.SideSell && stop.GreaterThanOrEqual(marketPrice) {
				return zero, reject(ReasonInvalidStopDir, intent.Symbol, stop, marketPrice,
					"sell stop %s must be below current price %s", stop, marketPrice)
			}
			if intent.Side == model.SideBuy && stop.LessThanOrEqual(marketPrice) {
				return zero, reject(ReasonInvalidStopDir, intent.Symbol, stop, marketPrice,
					"buy stop %s must be above current price %s", stop, marketPrice)
			}
			norm.StopPrice = stop
		}

		// 5. Minimum notional, waived for position-reducing orders.
		if !intent.ReduceOnly {
			notional := price.Mul(qty)
			if notional.LessThan(f.MinNotional) {
				return zero, reject(ReasonNotionalTooSmall, intent.Symbol, notional, f.MinNotional,
					"notional %s (price %s × qty %s) below minimum %s",
					notional, price, qty, f.MinNotional)
			}
		}

		// 6. Fat-finger guard: plain limit prices must stay inside the
		// percent-price band around market. Stop-limit prices are already
		// anchored by the trigger direction check.
		if intent.Type == model.TypeLimit {
			lower := marketPrice.Mul(f.MultiplierDown)
			upper := marketPrice.Mul(f.MultiplierUp)
			if price.LessThan(lower) || price.GreaterThan(upper) {
				return zero, reject(ReasonPriceDeviation, intent.Symbol, price, marketPrice,
					"price %s outside deviation band [%s, %s] around market %s",
					price, lower, upper, marketPrice)
			}
		}

	case model.TypeMarket:
		// 7. No price to check; estimate notional at the current market
		// price so the exchange's MIN_NOTIONAL filter won't bounce it.
		if !intent.ReduceOnly {
			notional := marketPrice.Mul(qty)
			if notional.LessThan(f.MinNotional) {
				return zero, reject(ReasonNotionalTooSmall, intent.Symbol, notional, f.MinNotional,
					"estimated notional %s (market %s × qty %s) below minimum %s",
					notional, marketPrice, qty, f.MinNotional)
			}
		}

	default:
		return zero, reject(ReasonMalformedInput, intent.Symbol, decimal.Zero, decimal.Zero,
			"unsupported order type %q", intent.Type)
	}

	return norm, nil
}

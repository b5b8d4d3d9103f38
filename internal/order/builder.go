package order

import (
	"strings"

	"futures-testnet-bot/internal/model"

	"github.com/shopspring/decimal"
)

// RawOrderArgs is the untyped input from the CLI or a calling script.
type RawOrderArgs struct {
	Symbol      string
	Side        string
	Type        string
	Quantity    string
	Price       string
	StopPrice   string
	TimeInForce string
	ReduceOnly  bool
}

var validTIF = map[string]bool{"GTC": true, "IOC": true, "FOK": true}

// BuildIntent performs structural parsing only: strings to enums and
// decimals, required-field presence per order type. Every failure is a
// MALFORMED_INPUT rejection. Business rules (filters, market price) are
// entirely the validator's job; the builder never approves or rejects on
// those grounds.
func BuildIntent(args RawOrderArgs) (model.OrderIntent, error) {
	var zero model.OrderIntent

	symbol := strings.ToUpper(strings.TrimSpace(args.Symbol))
	if symbol == "" {
		return zero, malformed("symbol is required")
	}

	side, err := model.ParseSide(args.Side)
	if err != nil {
		return zero, malformed("%v", err)
	}

	typ, err := model.ParseOrderType(args.Type)
	if err != nil {
		return zero, malformed("%v", err)
	}

	qty, err := parsePositiveDecimal(args.Quantity, "quantity")
	if err != nil {
		return zero, err
	}

	intent := model.OrderIntent{
		Symbol:     symbol,
		Side:       side,
		Type:       typ,
		Quantity:   qty,
		ReduceOnly: args.ReduceOnly,
	}

	if typ == model.TypeLimit || typ == model.TypeStopLimit {
		intent.Price, err = parsePositiveDecimal(args.Price, "price")
		if err != nil {
			return zero, err
		}

		tif := strings.ToUpper(strings.TrimSpace(args.TimeInForce))
		if tif == "" {
			tif = "GTC"
		}
		if !validTIF[tif] {
			return zero, malformed("invalid time in force %q (must be GTC, IOC or FOK)", args.TimeInForce)
		}
		intent.TimeInForce = tif
	}

	if typ == model.TypeStopLimit {
		intent.StopPrice, err = parsePositiveDecimal(args.StopPrice, "stop price")
		if err != nil {
			return zero, err
		}
	}

	return intent, nil
}

func parsePositiveDecimal(s, field string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return decimal.Zero, malformed("%s is required", field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, malformed("%s %q is not a valid number", field, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, malformed("%s must be positive, got %s", field, d)
	}
	return d, nil
}

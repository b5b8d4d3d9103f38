package order

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Reason is a stable rejection code for programmatic handling. The CLI
// renders the accompanying message; scripts switch on the code.
type Reason string

const (
	ReasonUnknownSymbol       Reason = "UNKNOWN_SYMBOL"
	ReasonMalformedInput      Reason = "MALFORMED_INPUT"
	ReasonBelowMinQty         Reason = "BELOW_MIN_QTY"
	ReasonQtyOutOfRange       Reason = "QUANTITY_OUT_OF_RANGE"
	ReasonPriceOutOfRange     Reason = "PRICE_OUT_OF_RANGE"
	ReasonInvalidStopDir      Reason = "INVALID_STOP_DIRECTION"
	ReasonNotionalTooSmall    Reason = "NOTIONAL_TOO_SMALL"
	ReasonPriceDeviation      Reason = "PRICE_DEVIATION_EXCEEDED"
	ReasonInvalidSymbolOrSide Reason = "INVALID_SYMBOL_OR_SIDE"
)

// Rejection is a validation failure. It carries the offending value and
// the violated bound so callers can build an actionable message without
// re-deriving either. All rejections are recoverable: retry with
// corrected input. Gateway failures are a separate taxonomy and are never
// wrapped in a Rejection.
type Rejection struct {
	Code    Reason
	Symbol  string
	Value   decimal.Decimal
	Bound   decimal.Decimal
	Message string
}

func (r *Rejection) Error() string {
	if r.Symbol != "" {
		return fmt.Sprintf("%s [%s]: %s", r.Code, r.Symbol, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// AsRejection unwraps a Rejection from err, if one is present.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func reject(code Reason, symbol string, value, bound decimal.Decimal, format string, args ...any) *Rejection {
	return &Rejection{
		Code:    code,
		Symbol:  symbol,
		Value:   value,
		Bound:   bound,
		Message: fmt.Sprintf(format, args...),
	}
}

func malformed(format string, args ...any) *Rejection {
	return &Rejection{Code: ReasonMalformedInput, Message: fmt.Sprintf(format, args...)}
}

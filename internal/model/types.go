package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide maps a user-supplied string to a Side.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("invalid side %q (must be BUY or SELL)", s)
}

// OrderType is the closed set of supported order types. The validator
// switches exhaustively on it, so adding a type forces every check site
// to be revisited.
type OrderType string

const (
	TypeMarket    OrderType = "MARKET"
	TypeLimit     OrderType = "LIMIT"
	TypeStopLimit OrderType = "STOP_LIMIT"
)

// ParseOrderType maps a user-supplied string to an OrderType.
// Accepts both "STOP_LIMIT" and the CLI spelling "STOP-LIMIT".
func ParseOrderType(s string) (OrderType, error) {
	norm := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
	switch OrderType(norm) {
	case TypeMarket:
		return TypeMarket, nil
	case TypeLimit:
		return TypeLimit, nil
	case TypeStopLimit:
		return TypeStopLimit, nil
	}
	return "", fmt.Errorf("invalid order type %q (must be MARKET, LIMIT or STOP_LIMIT)", s)
}

// OrderIntent is a structurally parsed order request. Price and StopPrice
// are zero unless the order type requires them; the builder guarantees
// presence, the validator guarantees legality.
type OrderIntent struct {
	Symbol      string
	Side        Side
	Type        OrderType
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce string
	ReduceOnly  bool
}

// NormalizedOrder is an OrderIntent whose quantity, price and stop price
// are snapped to the symbol's increments. Never mutated after creation;
// an instance only reaches callers once validation has approved it.
type NormalizedOrder struct {
	Symbol      string
	Side        Side
	Type        OrderType
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce string
	ReduceOnly  bool
}

// Notional returns price × quantity in quote currency. Market orders have
// no price of their own, so the caller supplies a reference price.
func (o NormalizedOrder) Notional(refPrice decimal.Decimal) decimal.Decimal {
	if o.Type == TypeMarket {
		return refPrice.Mul(o.Quantity)
	}
	return o.Price.Mul(o.Quantity)
}

// OrderAck is the exchange's acknowledgement of a submitted order.
type OrderAck struct {
	OrderID       int64     `json:"orderId"`
	ClientOrderID string    `json:"clientOrderId"`
	Symbol        string    `json:"symbol"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// OpenOrder is an order as reported by the exchange, either resting or
// looked up by ID after the fact.
type OpenOrder struct {
	OrderID     int64
	Symbol      string
	Side        Side
	Type        string
	Status      string
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	Quantity    decimal.Decimal
	ExecutedQty decimal.Decimal
}

// Balance is a single-asset futures wallet snapshot.
type Balance struct {
	Asset     string
	Available decimal.Decimal
	Total     decimal.Decimal
}

// Ticker carries a best bid/ask update from the book-ticker stream.
type Ticker struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Time   time.Time
}

// Mid returns the bid/ask midpoint.
func (t Ticker) Mid() decimal.Decimal {
	return t.Bid.Add(t.Ask).Div(decimal.NewFromInt(2))
}

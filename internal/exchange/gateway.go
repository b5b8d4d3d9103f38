package exchange

import (
	"context"
	"errors"

	"futures-testnet-bot/internal/model"

	"github.com/shopspring/decimal"
)

// Gateway failures are deliberately a separate taxonomy from validation
// rejections: a fully validated order can still be refused by the
// exchange (stale filters, insufficient margin), and that refusal must
// reach the caller unchanged.
var (
	// ErrSymbolNotFound means the exchange lists no such instrument.
	ErrSymbolNotFound = errors.New("exchange: symbol not found")
	// ErrPriceUnavailable means no market price could be obtained.
	ErrPriceUnavailable = errors.New("exchange: price unavailable")
)

// Gateway is the exchange boundary. The engine only ever sees this
// interface; tests inject fakes, production wires the Binance futures
// client.
type Gateway interface {
	FetchSymbolFilters(ctx context.Context, symbol string) (model.SymbolFilters, error)
	FetchMarketPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	SubmitOrder(ctx context.Context, o model.NormalizedOrder) (model.OrderAck, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	CancelAllOrders(ctx context.Context, symbol string) error
	GetOrder(ctx context.Context, symbol string, orderID int64) (model.OpenOrder, error)
	OpenOrders(ctx context.Context, symbol string) ([]model.OpenOrder, error)
	AccountBalance(ctx context.Context, asset string) (model.Balance, error)
}

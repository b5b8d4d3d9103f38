package exchange

import (
	"context"
	"fmt"
	"time"

	"futures-testnet-bot/internal/logger"
	"futures-testnet-bot/internal/model"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

// Binance implements Gateway against the USDⓈ-M futures API.
type Binance struct {
	client *futures.Client
}

// NewBinance builds a futures gateway. Testnet selection is process-wide
// in the SDK, so it is decided once here at construction.
func NewBinance(apiKey, secretKey string, testnet bool) *Binance {
	futures.UseTestnet = testnet
	return &Binance{client: binance.NewFuturesClient(apiKey, secretKey)}
}

// FetchSymbolFilters pulls exchange info and flattens the filter list for
// one symbol into SymbolFilters. Returns ErrSymbolNotFound when the
// exchange does not list the instrument.
func (b *Binance) FetchSymbolFilters(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return model.SymbolFilters{}, fmt.Errorf("fetch exchange info: %w", err)
	}

	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Symbol != symbol {
			continue
		}
		filters, err := flattenFilters(s)
		if err != nil {
			return model.SymbolFilters{}, fmt.Errorf("parse filters for %s: %w", symbol, err)
		}
		logger.Debug("Fetched symbol filters",
			"symbol", symbol,
			"tick_size", filters.TickSize.String(),
			"step_size", filters.StepSize.String(),
			"min_notional", filters.MinNotional.String(),
		)
		return filters, nil
	}

	return model.SymbolFilters{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
}

func flattenFilters(s *futures.Symbol) (model.SymbolFilters, error) {
	f := model.SymbolFilters{Symbol: s.Symbol, Status: s.Status}

	if pf := s.PriceFilter(); pf != nil {
		var err error
		if f.TickSize, err = decimal.NewFromString(pf.TickSize); err != nil {
			return f, fmt.Errorf("tickSize %q: %w", pf.TickSize, err)
		}
		if f.MinPrice, err = decimal.NewFromString(pf.MinPrice); err != nil {
			return f, fmt.Errorf("minPrice %q: %w", pf.MinPrice, err)
		}
		if f.MaxPrice, err = decimal.NewFromString(pf.MaxPrice); err != nil {
			return f, fmt.Errorf("maxPrice %q: %w", pf.MaxPrice, err)
		}
	}

	if lf := s.LotSizeFilter(); lf != nil {
		var err error
		if f.StepSize, err = decimal.NewFromString(lf.StepSize); err != nil {
			return f, fmt.Errorf("stepSize %q: %w", lf.StepSize, err)
		}
		if f.MinQty, err = decimal.NewFromString(lf.MinQuantity); err != nil {
			return f, fmt.Errorf("minQty %q: %w", lf.MinQuantity, err)
		}
		if f.MaxQty, err = decimal.NewFromString(lf.MaxQuantity); err != nil {
			return f, fmt.Errorf("maxQty %q: %w", lf.MaxQuantity, err)
		}
	}

	if nf := s.MinNotionalFilter(); nf != nil {
		var err error
		if f.MinNotional, err = decimal.NewFromString(nf.Notional); err != nil {
			return f, fmt.Errorf("minNotional %q: %w", nf.Notional, err)
		}
	}

	if pp := s.PercentPriceFilter(); pp != nil {
		var err error
		if f.MultiplierUp, err = decimal.NewFromString(pp.MultiplierUp); err != nil {
			return f, fmt.Errorf("multiplierUp %q: %w", pp.MultiplierUp, err)
		}
		if f.MultiplierDown, err = decimal.NewFromString(pp.MultiplierDown); err != nil {
			return f, fmt.Errorf("multiplierDown %q: %w", pp.MultiplierDown, err)
		}
	}

	return f, nil
}

// FetchMarketPrice returns the last traded price for the symbol.
func (b *Binance) FetchMarketPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, symbol, err)
	}
	for _, p := range prices {
		if p.Symbol != symbol {
			continue
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s: bad price %q", ErrPriceUnavailable, symbol, p.Price)
		}
		return price, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
}

// SubmitOrder sends an already-validated order to the exchange. Any
// exchange-side rejection surfaces unchanged; the engine never retries.
func (b *Binance) SubmitOrder(ctx context.Context, o model.NormalizedOrder) (model.OrderAck, error) {
	svc := b.client.NewCreateOrderService().
		Symbol(o.Symbol).
		Side(futures.SideType(o.Side)).
		Type(orderType(o.Type)).
		Quantity(o.Quantity.String())

	if o.Type == model.TypeLimit || o.Type == model.TypeStopLimit {
		svc = svc.Price(o.Price.String()).
			TimeInForce(futures.TimeInForceType(o.TimeInForce))
	}
	if o.Type == model.TypeStopLimit {
		svc = svc.StopPrice(o.StopPrice.String())
	}
	if o.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return model.OrderAck{}, fmt.Errorf("submit order: %w", err)
	}

	ack := model.OrderAck{
		OrderID:       res.OrderID,
		ClientOrderID: res.ClientOrderID,
		Symbol:        res.Symbol,
		Status:        string(res.Status),
		SubmittedAt:   time.Now(),
	}
	logger.Info("Order submitted",
		"symbol", ack.Symbol,
		"order_id", ack.OrderID,
		"side", string(o.Side),
		"type", string(o.Type),
		"qty", o.Quantity.String(),
		"status", ack.Status,
	)
	return ack, nil
}

// orderType maps the engine's closed variant onto the wire values. The
// futures API spells a stop-limit order "STOP".
func orderType(t model.OrderType) futures.OrderType {
	switch t {
	case model.TypeMarket:
		return futures.OrderTypeMarket
	case model.TypeLimit:
		return futures.OrderTypeLimit
	case model.TypeStopLimit:
		return futures.OrderTypeStop
	}
	return futures.OrderType(t)
}

// CancelOrder cancels a resting order by exchange order ID.
func (b *Binance) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	_, err := b.client.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return fmt.Errorf("cancel order %d on %s: %w", orderID, symbol, err)
	}
	logger.Info("Order canceled", "symbol", symbol, "order_id", orderID)
	return nil
}

// CancelAllOrders cancels every resting order on a symbol in one call.
func (b *Binance) CancelAllOrders(ctx context.Context, symbol string) error {
	if err := b.client.NewCancelAllOpenOrdersService().Symbol(symbol).Do(ctx); err != nil {
		return fmt.Errorf("cancel all orders on %s: %w", symbol, err)
	}
	logger.Info("All open orders canceled", "symbol", symbol)
	return nil
}

// GetOrder looks up one order by exchange order ID, in any status.
func (b *Binance) GetOrder(ctx context.Context, symbol string, orderID int64) (model.OpenOrder, error) {
	r, err := b.client.NewGetOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return model.OpenOrder{}, fmt.Errorf("get order %d on %s: %w", orderID, symbol, err)
	}
	o := model.OpenOrder{
		OrderID: r.OrderID,
		Symbol:  r.Symbol,
		Side:    model.Side(r.Side),
		Type:    string(r.Type),
		Status:  string(r.Status),
	}
	o.Price, _ = decimal.NewFromString(r.Price)
	o.StopPrice, _ = decimal.NewFromString(r.StopPrice)
	o.Quantity, _ = decimal.NewFromString(r.OrigQuantity)
	o.ExecutedQty, _ = decimal.NewFromString(r.ExecutedQuantity)
	return o, nil
}

// OpenOrders lists resting orders, optionally filtered by symbol.
func (b *Binance) OpenOrders(ctx context.Context, symbol string) ([]model.OpenOrder, error) {
	svc := b.client.NewListOpenOrdersService()
	if symbol != "" {
		svc = svc.Symbol(symbol)
	}
	raw, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}

	orders := make([]model.OpenOrder, 0, len(raw))
	for _, r := range raw {
		o := model.OpenOrder{
			OrderID: r.OrderID,
			Symbol:  r.Symbol,
			Side:    model.Side(r.Side),
			Type:    string(r.Type),
			Status:  string(r.Status),
		}
		o.Price, _ = decimal.NewFromString(r.Price)
		o.StopPrice, _ = decimal.NewFromString(r.StopPrice)
		o.Quantity, _ = decimal.NewFromString(r.OrigQuantity)
		o.ExecutedQty, _ = decimal.NewFromString(r.ExecutedQuantity)
		orders = append(orders, o)
	}
	return orders, nil
}

// AccountBalance returns the futures wallet balance for one asset.
func (b *Binance) AccountBalance(ctx context.Context, asset string) (model.Balance, error) {
	acct, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return model.Balance{}, fmt.Errorf("fetch account: %w", err)
	}
	for _, a := range acct.Assets {
		if a.Asset != asset {
			continue
		}
		bal := model.Balance{Asset: asset}
		bal.Available, _ = decimal.NewFromString(a.AvailableBalance)
		bal.Total, _ = decimal.NewFromString(a.WalletBalance)
		return bal, nil
	}
	logger.Warn("Asset not found in account", "asset", asset)
	return model.Balance{Asset: asset}, nil
}

// ListenKey management for the user-data stream.

func (b *Binance) StartUserStream(ctx context.Context) (string, error) {
	key, err := b.client.NewStartUserStreamService().Do(ctx)
	if err != nil {
		return "", fmt.Errorf("start user stream: %w", err)
	}
	return key, nil
}

func (b *Binance) KeepAliveUserStream(ctx context.Context, listenKey string) error {
	return b.client.NewKeepaliveUserStreamService().ListenKey(listenKey).Do(ctx)
}

func (b *Binance) CloseUserStream(ctx context.Context, listenKey string) error {
	return b.client.NewCloseUserStreamService().ListenKey(listenKey).Do(ctx)
}

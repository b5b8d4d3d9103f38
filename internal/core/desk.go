package core

import (
	"context"
	"time"

	"futures-testnet-bot/internal/config"
	"futures-testnet-bot/internal/exchange"
	"futures-testnet-bot/internal/filters"
	"futures-testnet-bot/internal/logger"
	"futures-testnet-bot/internal/metrics"
	"futures-testnet-bot/internal/model"
	"futures-testnet-bot/internal/order"
	"futures-testnet-bot/internal/repository"
	"futures-testnet-bot/internal/service"

	"github.com/shopspring/decimal"
)

// Desk wires the validation engine to its collaborators: filter cache,
// exchange gateway, order journal, notifier and metrics. One Desk serves
// the whole process; all methods are safe for concurrent use because the
// engine itself is pure and the shared pieces lock internally.
type Desk struct {
	Cfg      *config.Config
	Cache    *filters.Cache
	Gateway  exchange.Gateway
	Journal  *repository.OrderJournal
	Telegram *service.TelegramService
	Metrics  *metrics.Tracker
}

func NewDesk(cfg *config.Config, cache *filters.Cache, gw exchange.Gateway, journal *repository.OrderJournal, telegram *service.TelegramService, tracker *metrics.Tracker) *Desk {
	return &Desk{
		Cfg:      cfg,
		Cache:    cache,
		Gateway:  gw,
		Journal:  journal,
		Telegram: telegram,
		Metrics:  tracker,
	}
}

// Validate builds and validates an intent without submitting anything:
// the dry-run path, and the first half of PlaceOrder.
func (d *Desk) Validate(ctx context.Context, args order.RawOrderArgs) (model.NormalizedOrder, error) {
	intent, err := order.BuildIntent(args)
	if err != nil {
		return model.NormalizedOrder{}, err
	}

	flt, err := d.Cache.Get(ctx, intent.Symbol)
	if err != nil {
		return model.NormalizedOrder{}, err
	}

	marketPrice, err := d.Gateway.FetchMarketPrice(ctx, intent.Symbol)
	if err != nil {
		return model.NormalizedOrder{}, err
	}

	normalized, err := order.Validate(intent, flt, marketPrice)
	if err != nil {
		if rej, ok := order.AsRejection(err); ok {
			logger.Warn("Order rejected",
				"symbol", intent.Symbol,
				"code", string(rej.Code),
				"message", rej.Message,
			)
			d.Telegram.NotifyRejection(intent.Symbol, string(rej.Code), rej.Message)
		}
		return model.NormalizedOrder{}, err
	}
	return normalized, nil
}

// PlaceOrder runs the full pipeline: build → filters → market price →
// validate → submit → journal → notify. Validation rejections carry a
// *order.Rejection; gateway failures pass through unchanged so callers
// can tell "you sent nonsense" from "the exchange said no".
func (d *Desk) PlaceOrder(ctx context.Context, args order.RawOrderArgs) (model.OrderAck, error) {
	start := time.Now()

	normalized, err := d.Validate(ctx, args)
	if err != nil {
		return model.OrderAck{}, err
	}

	ack, err := d.Gateway.SubmitOrder(ctx, normalized)
	if err != nil {
		return model.OrderAck{}, err
	}

	if err := d.Journal.Record(normalized, ack); err != nil {
		// The order is live on the exchange; a journal write failure is
		// an operational problem, not an order failure.
		logger.Error("Failed to journal order", "order_id", ack.OrderID, "error", err)
	}
	d.Telegram.NotifyOrderPlaced(normalized, ack)
	d.Metrics.TrackOrder(time.Since(start))

	return ack, nil
}

// CancelOrder cancels on the exchange and reflects it in the journal.
func (d *Desk) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	if err := d.Gateway.CancelOrder(ctx, symbol, orderID); err != nil {
		return err
	}
	if _, tracked := d.Journal.Get(orderID); tracked {
		if err := d.Journal.UpdateStatus(orderID, repository.StatusCanceled, ""); err != nil {
			logger.Error("Failed to update journal after cancel", "order_id", orderID, "error", err)
		}
	}
	return nil
}

// CancelAllOrders cancels every resting order on a symbol and closes out
// the matching journal entries.
func (d *Desk) CancelAllOrders(ctx context.Context, symbol string) error {
	if err := d.Gateway.CancelAllOrders(ctx, symbol); err != nil {
		return err
	}
	for _, e := range d.Journal.Open() {
		if e.Symbol != symbol {
			continue
		}
		if err := d.Journal.UpdateStatus(e.OrderID, repository.StatusCanceled, ""); err != nil {
			logger.Error("Failed to update journal after cancel-all", "order_id", e.OrderID, "error", err)
		}
	}
	return nil
}

// OrderStatus looks up one order on the exchange by ID.
func (d *Desk) OrderStatus(ctx context.Context, symbol string, orderID int64) (model.OpenOrder, error) {
	return d.Gateway.GetOrder(ctx, symbol, orderID)
}

// OpenOrders lists resting orders from the exchange.
func (d *Desk) OpenOrders(ctx context.Context, symbol string) ([]model.OpenOrder, error) {
	return d.Gateway.OpenOrders(ctx, symbol)
}

// Balance returns the futures wallet balance for one asset.
func (d *Desk) Balance(ctx context.Context, asset string) (model.Balance, error) {
	return d.Gateway.AccountBalance(ctx, asset)
}

// MarketPrice returns the current market price for a symbol.
func (d *Desk) MarketPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return d.Gateway.FetchMarketPrice(ctx, symbol)
}

// RefreshFilters forces a re-fetch of a symbol's trading rules.
func (d *Desk) RefreshFilters(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	return d.Cache.Refresh(ctx, symbol)
}

// SyncJournal reconciles the journal with the exchange's open orders,
// closing out anything that filled or was canceled while we were away.
func (d *Desk) SyncJournal(ctx context.Context) error {
	open, err := d.Gateway.OpenOrders(ctx, "")
	if err != nil {
		return err
	}
	return d.Journal.Reconcile(open)
}

// ApplyUpdate folds a user-data stream event into the journal and pushes
// a fill notification when an order completes.
func (d *Desk) ApplyUpdate(u service.OrderUpdate) {
	if _, tracked := d.Journal.Get(u.OrderID); !tracked {
		logger.Debug("Stream update for untracked order", "order_id", u.OrderID, "status", u.Status)
		return
	}
	if err := d.Journal.UpdateStatus(u.OrderID, u.Status, u.CumFilledQty); err != nil {
		logger.Error("Failed to apply stream update", "order_id", u.OrderID, "error", err)
		return
	}
	if u.Status == repository.StatusFilled {
		d.Telegram.NotifyOrderFilled(u)
	}
}

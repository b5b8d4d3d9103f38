package core

import (
	"context"
	"time"

	"futures-testnet-bot/internal/logger"
	"futures-testnet-bot/internal/repository"
	"futures-testnet-bot/internal/service"
)

// Bot is the watch-mode loop: it follows the book ticker, folds
// user-data stream events into the journal, and periodically re-syncs
// journal and balances against the exchange REST API in case stream
// events were missed.
type Bot struct {
	Desk        *Desk
	MarketData  *service.MarketDataService
	Stream      *service.StreamService
	BalanceRepo *repository.BalanceRepository
}

func NewBot(desk *Desk, marketData *service.MarketDataService, stream *service.StreamService, balanceRepo *repository.BalanceRepository) *Bot {
	return &Bot{
		Desk:        desk,
		MarketData:  marketData,
		Stream:      stream,
		BalanceRepo: balanceRepo,
	}
}

// Run blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) {
	symbol := b.Desk.Cfg.Symbol
	logger.Info("Starting watch loop", "symbol", symbol)

	b.MarketData.Start([]string{symbol})

	// User-data stream with a simple reconnect loop.
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := b.Stream.Start(ctx); err != nil {
				logger.Error("Failed to start user stream, retrying in 10s...", "error", err)
			} else {
				// Start blocks inside the read loop; returning means the
				// connection dropped.
				logger.Warn("User stream disconnected, reconnecting in 5s...")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()

	updates := b.MarketData.GetUpdates()
	syncTicker := time.NewTicker(1 * time.Minute)
	defer syncTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.MarketData.Stop()
			_ = b.Stream.Stop(context.Background())
			logger.Info("Watch loop stopped")
			return

		case ticker := <-updates:
			logger.Debug("Price update",
				"symbol", ticker.Symbol,
				"bid", ticker.Bid.String(),
				"ask", ticker.Ask.String(),
			)

		case u := <-b.Stream.Updates:
			logger.Info("Order update",
				"symbol", u.Symbol,
				"order_id", u.OrderID,
				"exec_type", u.ExecutionType,
				"status", u.Status,
			)
			b.Desk.ApplyUpdate(u)

		case <-syncTicker.C:
			b.syncOnce(ctx)
		}
	}
}

func (b *Bot) syncOnce(ctx context.Context) {
	if err := b.Desk.SyncJournal(ctx); err != nil {
		logger.Error("Journal sync failed", "error", err)
	}
	bal, err := b.Desk.Balance(ctx, "USDT")
	if err != nil {
		logger.Error("Balance sync failed", "error", err)
		return
	}
	b.BalanceRepo.Set(bal)
	logger.Debug("Balance synchronized",
		"asset", bal.Asset,
		"available", bal.Available.String(),
		"total", bal.Total.String(),
	)
}

package service

import (
	"sync"
	"time"

	"futures-testnet-bot/internal/logger"
	"futures-testnet-bot/internal/model"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

// MarketDataService streams best bid/ask for a set of symbols over the
// futures book-ticker websocket and keeps the latest quote per symbol.
type MarketDataService struct {
	mu           sync.RWMutex
	tickers      map[string]model.Ticker
	priceUpdates chan model.Ticker
	stopCh       chan struct{}
}

func NewMarketDataService() *MarketDataService {
	return &MarketDataService{
		tickers:      make(map[string]model.Ticker),
		priceUpdates: make(chan model.Ticker, 100),
		stopCh:       make(chan struct{}),
	}
}

func (s *MarketDataService) Start(symbols []string) {
	for _, symbol := range symbols {
		go s.monitorSymbol(symbol)
	}
}

func (s *MarketDataService) monitorSymbol(symbol string) {
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		wsHandler := func(event *futures.WsBookTickerEvent) {
			bid, err := decimal.NewFromString(event.BestBidPrice)
			if err != nil {
				return
			}
			ask, err := decimal.NewFromString(event.BestAskPrice)
			if err != nil {
				return
			}

			ticker := model.Ticker{
				Symbol: event.Symbol,
				Bid:    bid,
				Ask:    ask,
				Time:   time.Now(),
			}

			s.mu.Lock()
			s.tickers[event.Symbol] = ticker
			s.mu.Unlock()

			select {
			case s.priceUpdates <- ticker:
			default:
				// Slow consumer; drop rather than stall the WS read loop.
			}
		}

		errHandler := func(err error) {
			logger.Error("WebSocket error", "symbol", symbol, "error", err)
		}

		logger.Info("Connecting to futures WS (BookTicker)", "symbol", symbol)
		doneC, stopC, err := futures.WsBookTickerServe(symbol, wsHandler, errHandler)
		if err != nil {
			logger.Error("Failed to connect to futures WS, retrying in 5s...", "symbol", symbol, "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		select {
		case <-s.stopCh:
			stopC <- struct{}{}
			return
		case <-doneC:
			logger.Warn("WebSocket connection closed, reconnecting in 5s...", "symbol", symbol)
			time.Sleep(5 * time.Second)
		}
	}
}

// GetTicker returns the latest quote for symbol, if one has arrived.
func (s *MarketDataService) GetTicker(symbol string) (model.Ticker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickers[symbol]
	return t, ok
}

func (s *MarketDataService) GetUpdates() <-chan model.Ticker {
	return s.priceUpdates
}

func (s *MarketDataService) Stop() {
	close(s.stopCh)
}

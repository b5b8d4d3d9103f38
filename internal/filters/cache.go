package filters

import (
	"context"
	"errors"
	"sync"

	"futures-testnet-bot/internal/exchange"
	"futures-testnet-bot/internal/logger"
	"futures-testnet-bot/internal/model"
	"futures-testnet-bot/internal/order"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Fetcher is the slice of the gateway the cache needs.
type Fetcher interface {
	FetchSymbolFilters(ctx context.Context, symbol string) (model.SymbolFilters, error)
}

// Cache holds per-symbol trading rules fetched from the exchange.
//
// Filters change rarely, so entries have no TTL: staleness is tolerated
// and surfaces, at worst, as an exchange-side rejection at the gateway.
// Entries are replaced wholesale under the write lock, never mutated, so
// readers always see a complete filter set. Concurrent misses on the
// same symbol collapse into one gateway fetch via singleflight.
type Cache struct {
	fetcher Fetcher

	mu      sync.RWMutex
	entries map[string]model.SymbolFilters
	group   singleflight.Group
}

// NewCache builds an empty cache over the given fetcher.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[string]model.SymbolFilters),
	}
}

// Get returns the filters for symbol, fetching on a miss. A symbol the
// exchange does not list yields an UNKNOWN_SYMBOL rejection; any other
// gateway failure passes through untranslated.
func (c *Cache) Get(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	c.mu.RLock()
	f, ok := c.entries[symbol]
	c.mu.RUnlock()
	if ok {
		return f, nil
	}
	return c.fetch(ctx, symbol)
}

// Refresh re-fetches the symbol's filters and atomically replaces the
// cached entry.
func (c *Cache) Refresh(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	return c.fetch(ctx, symbol)
}

func (c *Cache) fetch(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	v, err, shared := c.group.Do(symbol, func() (any, error) {
		f, err := c.fetcher.FetchSymbolFilters(ctx, symbol)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[symbol] = f
		c.mu.Unlock()
		return f, nil
	})
	if err != nil {
		if errors.Is(err, exchange.ErrSymbolNotFound) {
			return model.SymbolFilters{}, &order.Rejection{
				Code:    order.ReasonUnknownSymbol,
				Symbol:  symbol,
				Value:   decimal.Zero,
				Bound:   decimal.Zero,
				Message: "symbol " + symbol + " is not listed on the exchange",
			}
		}
		return model.SymbolFilters{}, err
	}
	if shared {
		logger.Debug("Filter fetch collapsed into in-flight request", "symbol", symbol)
	}
	return v.(model.SymbolFilters), nil
}

// Prime seeds entries without touching the gateway. Used by tests and by
// callers that already hold a fresh filter set.
func (c *Cache) Prime(filters ...model.SymbolFilters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range filters {
		c.entries[f.Symbol] = f
	}
}

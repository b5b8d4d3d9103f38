package filters

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"futures-testnet-bot/internal/exchange"
	"futures-testnet-bot/internal/model"
	"futures-testnet-bot/internal/order"

	"github.com/shopspring/decimal"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int32
	gate    chan struct{} // when set, fetches block until closed
	entries map[string]model.SymbolFilters
}

func (f *fakeFetcher) FetchSymbolFilters(ctx context.Context, symbol string) (model.SymbolFilters, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	flt, ok := f.entries[symbol]
	if !ok {
		return model.SymbolFilters{}, fmt.Errorf("%w: %s", exchange.ErrSymbolNotFound, symbol)
	}
	return flt, nil
}

func testFilters(symbol, minNotional string) model.SymbolFilters {
	return model.SymbolFilters{
		Symbol:      symbol,
		Status:      model.StatusTrading,
		TickSize:    decimal.RequireFromString("0.1"),
		StepSize:    decimal.RequireFromString("0.001"),
		MinNotional: decimal.RequireFromString(minNotional),
	}
}

func TestCache_GetFetchesOnce(t *testing.T) {
	fetcher := &fakeFetcher{entries: map[string]model.SymbolFilters{
		"BTCUSDT": testFilters("BTCUSDT", "100"),
	}}
	cache := NewCache(fetcher)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := cache.Get(ctx, "BTCUSDT")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if got.Symbol != "BTCUSDT" {
			t.Errorf("Get() symbol = %q, want BTCUSDT", got.Symbol)
		}
	}

	if n := atomic.LoadInt32(&fetcher.calls); n != 1 {
		t.Errorf("fetch count = %d, want 1", n)
	}
}

func TestCache_UnknownSymbol(t *testing.T) {
	fetcher := &fakeFetcher{entries: map[string]model.SymbolFilters{}}
	cache := NewCache(fetcher)

	_, err := cache.Get(context.Background(), "NOPEUSDT")
	rej, ok := order.AsRejection(err)
	if !ok {
		t.Fatalf("Get() error = %v, want Rejection", err)
	}
	if rej.Code != order.ReasonUnknownSymbol {
		t.Errorf("code = %s, want %s", rej.Code, order.ReasonUnknownSymbol)
	}
}

func TestCache_RefreshReplacesEntry(t *testing.T) {
	fetcher := &fakeFetcher{entries: map[string]model.SymbolFilters{
		"BTCUSDT": testFilters("BTCUSDT", "100"),
	}}
	cache := NewCache(fetcher)
	ctx := context.Background()

	before, err := cache.Get(ctx, "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}

	// Exchange raises the minimum notional.
	fetcher.mu.Lock()
	fetcher.entries["BTCUSDT"] = testFilters("BTCUSDT", "200")
	fetcher.mu.Unlock()

	// Plain Get still serves the old entry; no TTL.
	cached, err := cache.Get(ctx, "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	if !cached.MinNotional.Equal(before.MinNotional) {
		t.Errorf("Get() after upstream change = %s, want cached %s", cached.MinNotional, before.MinNotional)
	}

	after, err := cache.Refresh(ctx, "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	if !after.MinNotional.Equal(decimal.RequireFromString("200")) {
		t.Errorf("Refresh() minNotional = %s, want 200", after.MinNotional)
	}

	// And the replacement is visible to subsequent reads.
	got, err := cache.Get(ctx, "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	if !got.MinNotional.Equal(after.MinNotional) {
		t.Errorf("Get() after refresh = %s, want %s", got.MinNotional, after.MinNotional)
	}
}

func TestCache_ConcurrentMissesCollapse(t *testing.T) {
	fetcher := &fakeFetcher{
		gate: make(chan struct{}),
		entries: map[string]model.SymbolFilters{
			"BTCUSDT": testFilters("BTCUSDT", "100"),
		},
	}
	cache := NewCache(fetcher)
	ctx := context.Background()

	var started, done sync.WaitGroup
	const n = 10
	for i := 0; i < n; i++ {
		started.Add(1)
		done.Add(1)
		go func() {
			started.Done()
			defer done.Done()
			if _, err := cache.Get(ctx, "BTCUSDT"); err != nil {
				t.Errorf("Get() unexpected error: %v", err)
			}
		}()
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond) // let every goroutine reach the fetch
	close(fetcher.gate)               // release the single in-flight fetch
	done.Wait()

	if calls := atomic.LoadInt32(&fetcher.calls); calls != 1 {
		t.Errorf("fetch count = %d, want 1 (misses must collapse)", calls)
	}
}

func TestCache_Prime(t *testing.T) {
	fetcher := &fakeFetcher{entries: map[string]model.SymbolFilters{}}
	cache := NewCache(fetcher)
	cache.Prime(testFilters("ETHUSDT", "20"))

	got, err := cache.Get(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.Symbol != "ETHUSDT" {
		t.Errorf("symbol = %q, want ETHUSDT", got.Symbol)
	}
	if calls := atomic.LoadInt32(&fetcher.calls); calls != 0 {
		t.Errorf("fetch count = %d, want 0 for primed entry", calls)
	}
}

package repository

import (
	"path/filepath"
	"testing"

	"futures-testnet-bot/internal/model"

	"github.com/shopspring/decimal"
)

func newTestJournal(t *testing.T) (*OrderJournal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	j := NewOrderJournal(NewStorage(), path)
	if err := j.Load(); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return j, path
}

func sampleOrder(symbol string) (model.NormalizedOrder, model.OrderAck) {
	o := model.NormalizedOrder{
		Symbol:      symbol,
		Side:        model.SideSell,
		Type:        model.TypeLimit,
		Quantity:    decimal.RequireFromString("0.002"),
		Price:       decimal.RequireFromString("122000.0"),
		TimeInForce: "GTC",
	}
	ack := model.OrderAck{OrderID: 42, ClientOrderID: "abc", Symbol: symbol, Status: "NEW"}
	return o, ack
}

func TestOrderJournal_RecordAndReload(t *testing.T) {
	j, path := newTestJournal(t)

	o, ack := sampleOrder("BTCUSDT")
	if err := j.Record(o, ack); err != nil {
		t.Fatalf("Record() unexpected error: %v", err)
	}

	// A fresh journal over the same file sees the entry with exact
	// decimal strings.
	reloaded := NewOrderJournal(NewStorage(), path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	entry, ok := reloaded.Get(42)
	if !ok {
		t.Fatal("Get(42) not found after reload")
	}
	if entry.Quantity != "0.002" {
		t.Errorf("quantity = %q, want 0.002", entry.Quantity)
	}
	if entry.Price != "122000" {
		t.Errorf("price = %q, want 122000", entry.Price)
	}
	if entry.Status != "NEW" {
		t.Errorf("status = %q, want NEW", entry.Status)
	}
}

func TestOrderJournal_UpdateStatus(t *testing.T) {
	j, _ := newTestJournal(t)
	o, ack := sampleOrder("BTCUSDT")
	if err := j.Record(o, ack); err != nil {
		t.Fatal(err)
	}

	if err := j.UpdateStatus(42, StatusFilled, "0.002"); err != nil {
		t.Fatalf("UpdateStatus() unexpected error: %v", err)
	}
	entry, _ := j.Get(42)
	if entry.Status != StatusFilled {
		t.Errorf("status = %q, want %s", entry.Status, StatusFilled)
	}
	if entry.ExecutedQty != "0.002" {
		t.Errorf("executedQty = %q, want 0.002", entry.ExecutedQty)
	}

	if err := j.UpdateStatus(999, StatusFilled, ""); err == nil {
		t.Error("UpdateStatus(999) = nil, want error for unknown order")
	}
}

func TestOrderJournal_Reconcile(t *testing.T) {
	j, _ := newTestJournal(t)

	o, ack := sampleOrder("BTCUSDT")
	if err := j.Record(o, ack); err != nil {
		t.Fatal(err)
	}
	o2, ack2 := sampleOrder("ETHUSDT")
	ack2.OrderID = 43
	if err := j.Record(o2, ack2); err != nil {
		t.Fatal(err)
	}

	// Exchange only reports order 43 as still open; 42 filled or was
	// canceled while we were offline.
	open := []model.OpenOrder{{OrderID: 43, Symbol: "ETHUSDT"}}
	if err := j.Reconcile(open); err != nil {
		t.Fatalf("Reconcile() unexpected error: %v", err)
	}

	gone, _ := j.Get(42)
	if gone.Status != StatusClosed {
		t.Errorf("order 42 status = %q, want %s", gone.Status, StatusClosed)
	}
	alive, _ := j.Get(43)
	if alive.Status != "NEW" {
		t.Errorf("order 43 status = %q, want NEW", alive.Status)
	}

	openEntries := j.Open()
	if len(openEntries) != 1 || openEntries[0].OrderID != 43 {
		t.Errorf("Open() = %v, want only order 43", openEntries)
	}
}

func TestOrderJournal_ReconcileIsIdempotent(t *testing.T) {
	j, _ := newTestJournal(t)
	o, ack := sampleOrder("BTCUSDT")
	if err := j.Record(o, ack); err != nil {
		t.Fatal(err)
	}

	if err := j.Reconcile(nil); err != nil {
		t.Fatal(err)
	}
	first, _ := j.Get(42)
	if err := j.Reconcile(nil); err != nil {
		t.Fatal(err)
	}
	second, _ := j.Get(42)

	if first.Status != StatusClosed || second.Status != StatusClosed {
		t.Errorf("statuses = %q, %q, want both %s", first.Status, second.Status, StatusClosed)
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Error("second reconcile touched an already-closed entry")
	}
}

func TestBalanceRepository(t *testing.T) {
	r := NewBalanceRepository()

	if _, ok := r.Get("USDT"); ok {
		t.Error("Get() on empty repository reported a balance")
	}

	r.Set(model.Balance{
		Asset:     "USDT",
		Available: decimal.RequireFromString("1500.50"),
		Total:     decimal.RequireFromString("2000"),
	})

	b, ok := r.Get("USDT")
	if !ok {
		t.Fatal("Get(USDT) not found after Set")
	}
	if !b.Available.Equal(decimal.RequireFromString("1500.50")) {
		t.Errorf("available = %s, want 1500.50", b.Available)
	}
	if r.UpdatedAt().IsZero() {
		t.Error("UpdatedAt() is zero after Set")
	}
}

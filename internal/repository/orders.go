package repository

import (
	"fmt"
	"sync"
	"time"

	"futures-testnet-bot/internal/logger"
	"futures-testnet-bot/internal/model"
)

// Terminal statuses no longer tracked against the exchange.
const (
	StatusFilled   = "FILLED"
	StatusCanceled = "CANCELED"
	StatusClosed   = "CLOSED" // disappeared from the exchange while we were offline
)

// JournalEntry is one submitted order as we recorded it. Numeric fields
// are decimal strings so the JSON on disk round-trips exactly.
type JournalEntry struct {
	OrderID       int64     `json:"orderId"`
	ClientOrderID string    `json:"clientOrderId"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Type          string    `json:"type"`
	Quantity      string    `json:"quantity"`
	Price         string    `json:"price,omitempty"`
	StopPrice     string    `json:"stopPrice,omitempty"`
	ReduceOnly    bool      `json:"reduceOnly,omitempty"`
	Status        string    `json:"status"`
	ExecutedQty   string    `json:"executedQty,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (e JournalEntry) open() bool {
	switch e.Status {
	case StatusFilled, StatusCanceled, StatusClosed, "REJECTED", "EXPIRED":
		return false
	}
	return true
}

// OrderJournal persists every order this bot submitted, keeps the entry
// status current from the user-data stream, and reconciles against the
// exchange's open-order list to catch fills and cancels that happened
// while the process was down.
type OrderJournal struct {
	storage *Storage
	path    string

	mu      sync.RWMutex
	entries []JournalEntry
}

func NewOrderJournal(storage *Storage, path string) *OrderJournal {
	return &OrderJournal{storage: storage, path: path}
}

func (j *OrderJournal) Load() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.storage.Exists(j.path) {
		logger.Info("Order journal not found, creating empty", "path", j.path)
		return j.storage.Write(j.path, []JournalEntry{})
	}
	return j.storage.Read(j.path, &j.entries)
}

// Record appends a freshly acknowledged order.
func (j *OrderJournal) Record(o model.NormalizedOrder, ack model.OrderAck) error {
	now := time.Now()
	entry := JournalEntry{
		OrderID:       ack.OrderID,
		ClientOrderID: ack.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          string(o.Side),
		Type:          string(o.Type),
		Quantity:      o.Quantity.String(),
		ReduceOnly:    o.ReduceOnly,
		Status:        ack.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if o.Type != model.TypeMarket {
		entry.Price = o.Price.String()
	}
	if o.Type == model.TypeStopLimit {
		entry.StopPrice = o.StopPrice.String()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return j.storage.Write(j.path, j.entries)
}

// UpdateStatus applies a status change (typically from the user-data
// stream) to a journaled order.
func (j *OrderJournal) UpdateStatus(orderID int64, status, executedQty string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i := range j.entries {
		if j.entries[i].OrderID != orderID {
			continue
		}
		j.entries[i].Status = status
		if executedQty != "" {
			j.entries[i].ExecutedQty = executedQty
		}
		j.entries[i].UpdatedAt = time.Now()
		return j.storage.Write(j.path, j.entries)
	}
	return fmt.Errorf("order %d not found in journal", orderID)
}

// Get returns a journaled order by exchange order ID.
func (j *OrderJournal) Get(orderID int64) (JournalEntry, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	for _, e := range j.entries {
		if e.OrderID == orderID {
			return e, true
		}
	}
	return JournalEntry{}, false
}

// Open returns the journal entries still tracked as resting.
func (j *OrderJournal) Open() []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var open []JournalEntry
	for _, e := range j.entries {
		if e.open() {
			open = append(open, e)
		}
	}
	return open
}

// All returns a copy of every journal entry.
func (j *OrderJournal) All() []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]JournalEntry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Reconcile marks tracked orders that the exchange no longer reports as
// open. The order filled, was canceled, or expired while we were away;
// without live events we only know it is gone, so it is closed out.
func (j *OrderJournal) Reconcile(openOrders []model.OpenOrder) error {
	alive := make(map[int64]bool, len(openOrders))
	for _, o := range openOrders {
		alive[o.OrderID] = true
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	closed := 0
	for i := range j.entries {
		if j.entries[i].open() && !alive[j.entries[i].OrderID] {
			j.entries[i].Status = StatusClosed
			j.entries[i].UpdatedAt = time.Now()
			closed++
		}
	}
	if closed == 0 {
		return nil
	}
	logger.Info("Journal reconciled with exchange", "closed", closed)
	return j.storage.Write(j.path, j.entries)
}

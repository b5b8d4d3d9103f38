package repository

import (
	"sync"
	"time"

	"futures-testnet-bot/internal/model"
)

// BalanceRepository is an in-memory snapshot of futures wallet balances,
// refreshed by the watch-mode account sync.
type BalanceRepository struct {
	mu        sync.RWMutex
	balances  map[string]model.Balance
	updatedAt time.Time
}

func NewBalanceRepository() *BalanceRepository {
	return &BalanceRepository{balances: make(map[string]model.Balance)}
}

func (r *BalanceRepository) Set(b model.Balance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[b.Asset] = b
	r.updatedAt = time.Now()
}

func (r *BalanceRepository) Get(asset string) (model.Balance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.balances[asset]
	return b, ok
}

func (r *BalanceRepository) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

package memory

import (
	"context"
	"sync"

	"github.com/nicolasmmb/go-card-gateway/internal/core"
	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

type transactionsMemoryRepository struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
}

func NewTransactionsRepository() *transactionsMemoryRepository {
	return &transactionsMemoryRepository{transactions: make(map[string]domain.Transaction)}
}

// Put stores a copy so callers cannot mutate the stored record afterwards.
func (r *transactionsMemoryRepository) Put(ctx context.Context, transactionID string, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[transactionID] = *tx
	return nil
}

func (r *transactionsMemoryRepository) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.transactions[transactionID]
	if !ok {
		return nil, core.ErrTransactionNotFound
	}
	return &tx, nil
}

// Len reports how many transactions are held. Not part of the store interface; tests use it to
// check that no extra entries were written.
func (r *transactionsMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.transactions)
}

func (r *transactionsMemoryRepository) Ping(ctx context.Context) error {
	return nil
}

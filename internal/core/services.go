package core

import (
	"context"
	"errors"

	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionStoreInterface must be safe for concurrent use. Put overwrites, last writer wins.
type TransactionStoreInterface interface {
	Put(ctx context.Context, transactionID string, tx *domain.Transaction) error
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Ping(ctx context.Context) error
}

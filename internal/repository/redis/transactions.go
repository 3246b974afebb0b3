package redis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/nicolasmmb/go-card-gateway/internal/core"
	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

const RD_KEY_PREFIX_TX = "tx:"

type transactionsRedisRepository struct {
	db *redis.Client
}

func NewTransactionsRepository(db *redis.Client) *transactionsRedisRepository {
	return &transactionsRedisRepository{db: db}
}

func txKey(transactionID string) string {
	return RD_KEY_PREFIX_TX + transactionID
}

// Put relies on SET overwriting the previous value for the key.
func (r *transactionsRedisRepository) Put(ctx context.Context, transactionID string, tx *domain.Transaction) error {
	b, err := msgpack.Marshal(tx)
	if err != nil {
		slog.Error("[RP:Transaction:Put:01] - Failed to marshal transaction", "transaction_id", transactionID, "error", err)
		return err
	}

	if err := r.db.Set(ctx, txKey(transactionID), b, 0).Err(); err != nil {
		slog.Error("[RP:Transaction:Put:02] - Failed to save transaction to Redis", "transaction_id", transactionID, "error", err)
		return err
	}
	return nil
}

func (r *transactionsRedisRepository) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	data, err := r.db.Get(ctx, txKey(transactionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrTransactionNotFound
		}
		slog.Error("[RP:Transaction:Get:01] - Failed to get transaction from Redis", "transaction_id", transactionID, "error", err)
		return nil, err
	}

	var tx domain.Transaction
	if err := msgpack.Unmarshal(data, &tx); err != nil {
		slog.Error("[RP:Transaction:Get:02] - Failed to unmarshal transaction data", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	return &tx, nil
}

func (r *transactionsRedisRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx).Err(); err != nil {
		slog.Error("[RP:Transaction:Ping] - Redis health check failed", "error", err)
		return err
	}
	return nil
}

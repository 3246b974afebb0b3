package sqldb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nicolasmmb/go-card-gateway/internal/core"
	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

func newSQLiteRepo(t *testing.T) *transactionsSQLRepository {
	t.Helper()
	db, err := sql.Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo, err := NewTransactionsRepository(db, DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func sampleTransaction(id string) *domain.Transaction {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	return &domain.Transaction{
		ID:         id,
		Status:     domain.StatusPending,
		Message:    "Transaction is pending",
		CardNumber: "413789******5904",
		Amount:     decimal.RequireFromString("100.25"),
		Currency:   "USD",
		MerchantID: "merchant123",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestTransactionsSQLRepository_SQLite(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	tx := sampleTransaction("tx-1")
	require.NoError(t, repo.Put(ctx, tx.ID, tx))

	final := *tx
	final.Status = domain.StatusDenied
	final.Message = "No response from Acquirer B"
	final.Acquirer = domain.AcquirerB
	final.UpdatedAt = tx.UpdatedAt.Add(5 * time.Second)
	require.NoError(t, repo.Put(ctx, final.ID, &final))

	var count int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count))
	require.Equal(t, 1, count)

	got, err := repo.Get(ctx, "tx-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDenied, got.Status)
	require.Equal(t, "No response from Acquirer B", got.Message)
	require.Equal(t, domain.AcquirerB, got.Acquirer)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("100.25")))
	require.True(t, got.CreatedAt.Equal(tx.CreatedAt))
	require.True(t, got.UpdatedAt.Equal(final.UpdatedAt))

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, core.ErrTransactionNotFound)
	require.NoError(t, repo.Ping(ctx))
}

func TestNewTransactionsRepository_UnsupportedDriver(t *testing.T) {
	_, err := NewTransactionsRepository(nil, "mysql")
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	require.Equal(t, "SELECT $1, $2", rebind(DriverPostgres, "SELECT ?, ?"))
	require.Equal(t, "SELECT ?, ?", rebind(DriverSQLite, "SELECT ?, ?"))
}

// TestTransactionsSQLRepository_Postgres skips unless DB_DSN points at a postgres database.
func TestTransactionsSQLRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open(DriverPostgres, dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	repo, err := NewTransactionsRepository(db, DriverPostgres)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(context.Background()))

	id := uuid.NewString()
	tx := sampleTransaction(id)
	require.NoError(t, repo.Put(context.Background(), id, tx))
	tx.Status = domain.StatusApproved
	require.NoError(t, repo.Put(context.Background(), id, tx))

	got, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, got.Status)
	require.True(t, got.Amount.Equal(tx.Amount))
}

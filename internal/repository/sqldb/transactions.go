package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/nicolasmmb/go-card-gateway/internal/core"
	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var schema = map[string]string{
	DriverPostgres: `
		CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			status         TEXT NOT NULL,
			message        TEXT NOT NULL,
			acquirer       TEXT NOT NULL DEFAULT '',
			card_number    TEXT NOT NULL,
			amount         NUMERIC(18,2) NOT NULL,
			currency       TEXT NOT NULL,
			merchant_id    TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`,
	DriverSQLite: `
		CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			status         TEXT NOT NULL,
			message        TEXT NOT NULL,
			acquirer       TEXT NOT NULL DEFAULT '',
			card_number    TEXT NOT NULL,
			amount         TEXT NOT NULL,
			currency       TEXT NOT NULL,
			merchant_id    TEXT NOT NULL,
			created_at     TIMESTAMP NOT NULL,
			updated_at     TIMESTAMP NOT NULL
		)`,
}

const upsertTransaction = `
	INSERT INTO transactions (transaction_id, status, message, acquirer, card_number, amount, currency, merchant_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (transaction_id) DO UPDATE SET
		status = excluded.status,
		message = excluded.message,
		acquirer = excluded.acquirer,
		updated_at = excluded.updated_at`

const selectTransaction = `
	SELECT transaction_id, status, message, acquirer, card_number, amount, currency, merchant_id, created_at, updated_at
	FROM transactions WHERE transaction_id = ?`

type transactionsSQLRepository struct {
	db     *sql.DB
	driver string
	upsert string
	get    string
}

// NewTransactionsRepository serves both postgres (lib/pq) and sqlite3 (go-sqlite3) handles.
func NewTransactionsRepository(db *sql.DB, driver string) (*transactionsSQLRepository, error) {
	if _, ok := schema[driver]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	return &transactionsSQLRepository{
		db:     db,
		driver: driver,
		upsert: rebind(driver, upsertTransaction),
		get:    rebind(driver, selectTransaction),
	}, nil
}

// Migrate creates the transactions table when missing.
func (r *transactionsSQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema[r.driver]); err != nil {
		return fmt.Errorf("creating transactions table: %w", err)
	}
	return nil
}

func (r *transactionsSQLRepository) Put(ctx context.Context, transactionID string, tx *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx, r.upsert,
		transactionID, string(tx.Status), tx.Message, string(tx.Acquirer), tx.CardNumber,
		tx.Amount, tx.Currency, tx.MerchantID, tx.CreatedAt.UTC(), tx.UpdatedAt.UTC(),
	)
	if err != nil {
		slog.Error("[RP:Transaction:Put:01] - Failed to upsert transaction", append([]any{"transaction_id", transactionID, "error", err}, driverAttrs(err)...)...)
		return err
	}
	return nil
}

func (r *transactionsSQLRepository) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var (
		tx               domain.Transaction
		status, acquirer string
	)
	err := r.db.QueryRowContext(ctx, r.get, transactionID).Scan(
		&tx.ID, &status, &tx.Message, &acquirer, &tx.CardNumber,
		&tx.Amount, &tx.Currency, &tx.MerchantID, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrTransactionNotFound
		}
		slog.Error("[RP:Transaction:Get:01] - Failed to read transaction", append([]any{"transaction_id", transactionID, "error", err}, driverAttrs(err)...)...)
		return nil, err
	}
	tx.Status = domain.Status(status)
	tx.Acquirer = domain.AcquirerID(acquirer)
	return &tx, nil
}

func (r *transactionsSQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind turns ? placeholders into $n for postgres.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func driverAttrs(err error) []any {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return []any{"pg_code", string(pe.Code), "pg_error", pe.Code.Name()}
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return []any{"sqlite_code", int(se.Code), "sqlite_extended_code", int(se.ExtendedCode)}
	}
	return nil
}

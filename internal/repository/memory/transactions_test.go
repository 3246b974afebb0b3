package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicolasmmb/go-card-gateway/internal/core"
	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

func TestTransactionsMemoryRepository_Overwrite(t *testing.T) {
	repo := NewTransactionsRepository()
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "tx-1", &domain.Transaction{ID: "tx-1", Status: domain.StatusPending}))
	require.NoError(t, repo.Put(ctx, "tx-1", &domain.Transaction{ID: "tx-1", Status: domain.StatusDenied}))

	require.Equal(t, 1, repo.Len())
	got, err := repo.Get(ctx, "tx-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDenied, got.Status)

	_, err = repo.Get(ctx, "tx-2")
	require.ErrorIs(t, err, core.ErrTransactionNotFound)
}

func TestTransactionsMemoryRepository_StoresCopy(t *testing.T) {
	repo := NewTransactionsRepository()
	ctx := context.Background()

	tx := &domain.Transaction{ID: "tx-1", Status: domain.StatusPending}
	require.NoError(t, repo.Put(ctx, tx.ID, tx))
	tx.Status = domain.StatusApproved

	got, err := repo.Get(ctx, "tx-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
}

func TestTransactionsMemoryRepository_Concurrent(t *testing.T) {
	repo := NewTransactionsRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("tx-%d", i%10)
			_ = repo.Put(ctx, id, &domain.Transaction{ID: id, Status: domain.StatusPending})
			_, _ = repo.Get(ctx, id)
			_ = repo.Put(ctx, id, &domain.Transaction{ID: id, Status: domain.StatusApproved})
		}(i)
	}
	wg.Wait()

	require.Equal(t, 10, repo.Len())
}

package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nicolasmmb/go-card-gateway/internal/core"
	"github.com/nicolasmmb/go-card-gateway/internal/repository/memory"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type flakyStore struct {
	core.TransactionStoreInterface
	down  atomic.Bool
	pings atomic.Int32
}

func (s *flakyStore) Ping(ctx context.Context) error {
	s.pings.Add(1)
	if s.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestPerformHealthCheck(t *testing.T) {
	store := &flakyStore{TransactionStoreInterface: memory.NewTransactionsRepository()}
	w := NewHealthCheckWorker(store, time.Second, quiet)
	require.True(t, w.Healthy())

	store.down.Store(true)
	require.Error(t, w.PerformHealthCheck(context.Background()))
	require.False(t, w.Healthy())

	store.down.Store(false)
	require.NoError(t, w.PerformHealthCheck(context.Background()))
	require.True(t, w.Healthy())
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	store := &flakyStore{TransactionStoreInterface: memory.NewTransactionsRepository()}
	store.down.Store(true)
	w := NewHealthCheckWorker(store, 10*time.Millisecond, quiet)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.pings.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.False(t, w.Healthy())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNewHealthCheckWorker_DefaultInterval(t *testing.T) {
	w := NewHealthCheckWorker(memory.NewTransactionsRepository(), 0, nil)
	require.Equal(t, HEALTH_CHECK_INTERVAL, w.interval)
}

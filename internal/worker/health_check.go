package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nicolasmmb/go-card-gateway/internal/core"
)

const (
	HEALTH_CHECK_INTERVAL = 5500 * time.Millisecond
	HEALTH_CHECK_TIMEOUT  = 2 * time.Second
)

type healthCheckWorker struct {
	repo     core.TransactionStoreInterface
	interval time.Duration
	logger   *slog.Logger
	healthy  atomic.Bool
}

// NewHealthCheckWorker starts out healthy; the first failed ping flips it.
func NewHealthCheckWorker(repo core.TransactionStoreInterface, interval time.Duration, logger *slog.Logger) *healthCheckWorker {
	if interval <= 0 {
		interval = HEALTH_CHECK_INTERVAL
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &healthCheckWorker{repo: repo, interval: interval, logger: logger}
	w.healthy.Store(true)
	return w
}

func (w *healthCheckWorker) Healthy() bool {
	return w.healthy.Load()
}

// Run pings the store immediately and then on every tick until ctx is done.
func (w *healthCheckWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.PerformHealthCheck(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("[WK:HealthCheck:Run:01] - Health check worker stopped")
			return
		case <-ticker.C:
			w.PerformHealthCheck(ctx)
		}
	}
}

func (w *healthCheckWorker) PerformHealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, HEALTH_CHECK_TIMEOUT)
	defer cancel()

	err := w.repo.Ping(pingCtx)
	was := w.healthy.Swap(err == nil)
	switch {
	case err != nil && was:
		w.logger.Error("[WK:HealthCheck:Perform:01] - Transaction store unreachable", "error", err)
	case err == nil && !was:
		w.logger.Info("[WK:HealthCheck:Perform:02] - Transaction store recovered")
	}
	return err
}

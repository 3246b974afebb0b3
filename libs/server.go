package libs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// GracefulShutdown serves until SIGINT, SIGTERM or ctx cancellation, then drains the server within
// timeout. It returns early with the listen error if the server cannot start.
func GracefulShutdown(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("[LB:Server:Start:01] - HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("starting http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("[LB:Server:Shutdown:01] - Shutting down HTTP server", "timeout", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	logger.Info("[LB:Server:Shutdown:02] - HTTP server stopped")
	return nil
}

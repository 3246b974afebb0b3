package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/nicolasmmb/go-card-gateway/internal/acquirer"
	"github.com/nicolasmmb/go-card-gateway/internal/config/env"
	"github.com/nicolasmmb/go-card-gateway/internal/core"
	"github.com/nicolasmmb/go-card-gateway/internal/database"
	"github.com/nicolasmmb/go-card-gateway/internal/repository/memory"
	"github.com/nicolasmmb/go-card-gateway/internal/repository/redis"
	"github.com/nicolasmmb/go-card-gateway/internal/repository/sqldb"
	"github.com/nicolasmmb/go-card-gateway/internal/router"
	"github.com/nicolasmmb/go-card-gateway/internal/service"
	"github.com/nicolasmmb/go-card-gateway/internal/worker"
	"github.com/nicolasmmb/go-card-gateway/libs"
)

var Version = "dev"

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:           "gateway",
		Short:         "Card payment authorization gateway with simulated acquirers",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), envFiles)
		},
	}
	cmd.Flags().StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to load before reading the environment (default .env)")
	return cmd
}

func run(ctx context.Context, envFiles []string) error {
	if err := env.Load(envFiles...); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: env.Values.SlogLevel()}))
	slog.SetDefault(logger)
	env.ShowEnvValues(logger)

	store, closeStore, err := openStore(ctx, env.Values.STORE_BACKEND, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	selector, err := newSelector(env.Values.ROUTING_TABLE)
	if err != nil {
		return err
	}

	paymentSvc := service.NewPaymentService(store,
		service.WithLatency(env.Values.AcquirerLatency()),
		service.WithTimeout(env.Values.AcquirerTimeout()),
		service.WithSelector(selector),
		service.WithLogger(logger.With("component", "payment_service")),
	)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	healthWorker := worker.NewHealthCheckWorker(store, env.Values.HealthCheckInterval(), logger.With("component", "health_check"))
	go healthWorker.Run(workerCtx)

	paymentHandler := router.NewPaymentHandler(paymentSvc, healthWorker, logger.With("component", "http"))
	paymentRoutes := router.Routes(paymentHandler)
	paymentRoutes.Mount("/debug", chimw.Profiler())

	// WriteTimeout has to outlast the acquirer timeout or slow authorizations get cut off
	server := &http.Server{
		Addr:           env.Values.Addr(),
		Handler:        paymentRoutes,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   env.Values.AcquirerTimeout() + 5*time.Second,
		IdleTimeout:    30 * time.Second,
		MaxHeaderBytes: 256 << 10, // 256 KB
	}

	return libs.GracefulShutdown(ctx, server, env.Values.ShutdownTimeout(), logger)
}

// openStore builds the transaction store for backend. The returned func releases its connections.
func openStore(ctx context.Context, backend string, logger *slog.Logger) (core.TransactionStoreInterface, func(), error) {
	switch backend {
	case "", "memory":
		return memory.NewTransactionsRepository(), func() {}, nil

	case "redis":
		rds, err := database.ConnectToRedisClient(ctx, env.Values.REDIS_ADDR)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewTransactionsRepository(rds), database.CloseRedisClient, nil

	case "postgres", "sqlite":
		driver := sqldb.DriverPostgres
		if backend == "sqlite" {
			driver = sqldb.DriverSQLite
		}
		db, err := database.OpenSQL(ctx, driver, env.Values.DB_DSN)
		if err != nil {
			return nil, nil, err
		}
		repo, err := sqldb.NewTransactionsRepository(db, driver)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Error("[CMD:Store:Close:01] - Failed to close database", "error", err)
			}
		}
		return repo, closeDB, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q (want memory, redis, postgres or sqlite)", backend)
}

func newSelector(routingTable string) (acquirer.Selector, error) {
	if routingTable == "" {
		return acquirer.ParitySelector{}, nil
	}
	table, err := acquirer.LoadTable(routingTable, acquirer.ParitySelector{})
	if err != nil {
		return nil, fmt.Errorf("loading routing table: %w", err)
	}
	return table, nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	client *redis.Client
	once   sync.Once

	err error
)

// ConnectToRedisClient returns the process-wide client, dialing and pinging it on first use.
func ConnectToRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	once.Do(func() {
		slog.Info("[DB:Redis:Connect:01] - Connecting to Redis", "addr", addr)

		if addr == "" {
			err = errors.New("redis address is empty; set REDIS_ADDR")
			return
		}

		c := redis.NewClient(&redis.Options{
			Addr:         addr,
			PoolSize:     128,
			MinIdleConns: 16,
		})

		if pingErr := c.Ping(ctx).Err(); pingErr != nil {
			err = fmt.Errorf("connecting to redis at %s: %w", addr, pingErr)
			c.Close()
			return
		}

		slog.Info("[DB:Redis:Connect:02] - Redis client ready", "addr", addr)
		client = c
	})

	return client, err
}

func CloseRedisClient() {
	if client != nil {
		if err := client.Close(); err != nil {
			slog.Error("[DB:Redis:Close:01] - Failed to close Redis client", "error", err)
		}
	}
}

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/redis/go-redis/v9"
)

const retryDelay = 200 * time.Millisecond

type RedisStorage struct {
	Connection *redis.Client
}

// NewRedisStorage connects to addr, retrying the initial ping with backoff.
func NewRedisStorage(ctx context.Context, addr string, attempts uint) (*RedisStorage, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	err := retry.Do(
		func() error {
			return conn.Ping(ctx).Err()
		},
		retryOptions(ctx, attempts)...,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStorage{Connection: conn}, nil
}

func (that *RedisStorage) Close() error {
	return that.Connection.Close()
}

func retryOptions(ctx context.Context, attempts uint) []retry.Option {
	if attempts == 0 {
		attempts = 1
	}

	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}

//go:build integration

package containers

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"arbor/internal/platform/config"
	arborredis "arbor/internal/platform/redis"
)

// RedisContainer wraps a Redis instance reached through the same client
// constructor the server uses.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *arborredis.Client
}

func startRedis() (*RedisContainer, error) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7.4-alpine")
	if err != nil {
		return nil, fmt.Errorf("start redis: %w", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("redis connection string: %w", err)
	}

	client, err := arborredis.New(ctx, config.RedisConfig{URL: url, PoolSize: 10})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return &RedisContainer{Container: container, URL: url, Client: client}, nil
}

// FlushAll empties the database. Use between tests for isolation.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}

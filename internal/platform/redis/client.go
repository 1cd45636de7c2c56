package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"arbor/internal/platform/config"
)

// pingTimeout bounds the connectivity check made while dialing.
const pingTimeout = 3 * time.Second

// Client is the shared connection behind the tree and site caches and the
// mutation rate limiter. It satisfies redis.Cmdable through the embedded
// client.
type Client struct {
	*redis.Client
}

// New dials the server named by cfg.URL and pings it once. With no URL the
// caches stay disabled and New returns a nil client and no error.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := optionsFrom(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("reach redis at %s: %w", opts.Addr, err)
	}
	return c, nil
}

// optionsFrom layers the pool and timeout settings over what the URL already
// carries. Zero values leave the go-redis defaults alone.
func optionsFrom(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	overrideDuration(&opts.DialTimeout, cfg.DialTimeout)
	overrideDuration(&opts.ReadTimeout, cfg.ReadTimeout)
	overrideDuration(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func overrideDuration(dst *time.Duration, d time.Duration) {
	if d > 0 {
		*dst = d
	}
}

// Health is registered as the "redis" readiness check.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"arbor/pkg/platform/circuit"
	"arbor/pkg/platform/sentinel"
)

// CacheMetrics counts lookups per cache name.
type CacheMetrics struct {
	Hits   *prometheus.CounterVec
	Misses *prometheus.CounterVec
	Errors *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	factory := promauto.With(reg)
	return &CacheMetrics{
		Hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_cache_hits_total",
			Help: "Read-through cache hits",
		}, []string{"cache"}),
		Misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_cache_misses_total",
			Help: "Read-through cache misses",
		}, []string{"cache"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_cache_errors_total",
			Help: "Cache operations that failed against Redis",
		}, []string{"cache"}),
	}
}

// JSONCache stores values of T as JSON under "<prefix>:<key>" with a fixed TTL.
// With a breaker attached, Redis failures trip it and lookups report misses
// until a probe succeeds, so callers fall through to the store.
type JSONCache[T any] struct {
	client  redis.Cmdable
	prefix  string
	ttl     time.Duration
	metrics *CacheMetrics
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type CacheOption func(*cacheOptions)

type cacheOptions struct {
	metrics *CacheMetrics
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func WithCacheMetrics(m *CacheMetrics) CacheOption {
	return func(o *cacheOptions) { o.metrics = m }
}

func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(o *cacheOptions) { o.breaker = b }
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(o *cacheOptions) { o.logger = logger }
}

func NewJSONCache[T any](client redis.Cmdable, prefix string, ttl time.Duration, opts ...CacheOption) *JSONCache[T] {
	o := cacheOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &JSONCache[T]{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		metrics: o.metrics,
		breaker: o.breaker,
		logger:  o.logger,
	}
}

func (c *JSONCache[T]) key(k string) string {
	return c.prefix + ":" + k
}

// Get returns sentinel.ErrNotFound on a miss or while the breaker is open.
func (c *JSONCache[T]) Get(ctx context.Context, k string) (*T, error) {
	if !c.allow() {
		c.count(func(m *CacheMetrics) *prometheus.CounterVec { return m.Misses })
		return nil, sentinel.ErrNotFound
	}
	raw, err := c.client.Get(ctx, c.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.recordSuccess(ctx)
		c.count(func(m *CacheMetrics) *prometheus.CounterVec { return m.Misses })
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		c.recordFailure(ctx, err)
		c.count(func(m *CacheMetrics) *prometheus.CounterVec { return m.Errors })
		return nil, fmt.Errorf("cache get %s: %w", c.key(k), err)
	}
	c.recordSuccess(ctx)
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		// undecodable values are evicted and reported as a miss
		_ = c.client.Del(ctx, c.key(k)).Err()
		c.count(func(m *CacheMetrics) *prometheus.CounterVec { return m.Misses })
		return nil, sentinel.ErrNotFound
	}
	c.count(func(m *CacheMetrics) *prometheus.CounterVec { return m.Hits })
	return &v, nil
}

func (c *JSONCache[T]) Set(ctx context.Context, k string, v *T) error {
	if !c.allow() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", c.key(k), err)
	}
	if err := c.client.Set(ctx, c.key(k), raw, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, err)
		c.count(func(m *CacheMetrics) *prometheus.CounterVec { return m.Errors })
		return fmt.Errorf("cache set %s: %w", c.key(k), err)
	}
	c.recordSuccess(ctx)
	return nil
}

// Delete always reaches Redis, even with the breaker open: a skipped eviction
// would leave a stale entry behind once Redis recovers.
func (c *JSONCache[T]) Delete(ctx context.Context, k string) error {
	if err := c.client.Del(ctx, c.key(k)).Err(); err != nil {
		c.recordFailure(ctx, err)
		c.count(func(m *CacheMetrics) *prometheus.CounterVec { return m.Errors })
		return fmt.Errorf("cache delete %s: %w", c.key(k), err)
	}
	c.recordSuccess(ctx)
	return nil
}

func (c *JSONCache[T]) allow() bool {
	return c.breaker == nil || c.breaker.Allow()
}

func (c *JSONCache[T]) recordFailure(ctx context.Context, err error) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "cache circuit opened, bypassing redis",
			"cache", c.prefix,
			"breaker", c.breaker.Name(),
			"error", err,
		)
	}
}

func (c *JSONCache[T]) recordSuccess(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "cache circuit closed", "cache", c.prefix, "breaker", c.breaker.Name())
	}
}

func (c *JSONCache[T]) count(pick func(*CacheMetrics) *prometheus.CounterVec) {
	if c.metrics == nil {
		return
	}
	pick(c.metrics).WithLabelValues(c.prefix).Inc()
}

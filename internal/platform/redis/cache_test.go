package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/pkg/platform/circuit"
	"arbor/pkg/platform/sentinel"
)

type cachedSite struct {
	ID string `json:"id"`
}

// unreachableClient points at a closed port so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestJSONCache_BreakerBypassesFailingRedis(t *testing.T) {
	ctx := context.Background()
	metrics := NewCacheMetrics(prometheus.NewRegistry())
	breaker := circuit.New("site-cache", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	cache := NewJSONCache[cachedSite](unreachableClient(t), "site", time.Minute,
		WithCacheMetrics(metrics), WithBreaker(breaker))

	_, err := cache.Get(ctx, "site-001")
	require.Error(t, err)
	assert.False(t, errors.Is(err, sentinel.ErrNotFound))
	require.Error(t, cache.Set(ctx, "site-001", &cachedSite{ID: "site-001"}))
	assert.True(t, breaker.IsOpen())

	// open: reads degrade to misses without touching redis
	_, err = cache.Get(ctx, "site-001")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, cache.Set(ctx, "site-001", &cachedSite{ID: "site-001"}))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Errors.WithLabelValues("site")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Misses.WithLabelValues("site")))
}

func TestJSONCache_WithoutBreakerSurfacesErrors(t *testing.T) {
	cache := NewJSONCache[cachedSite](unreachableClient(t), "site", time.Minute)
	_, err := cache.Get(context.Background(), "site-001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache get site:site-001")
}

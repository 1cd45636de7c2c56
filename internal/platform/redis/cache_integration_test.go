//go:build integration

package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	arborredis "arbor/internal/platform/redis"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/testutil/containers"
)

type cachedTree struct {
	ID      string `json:"id"`
	Species string `json:"species"`
}

type JSONCacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	metrics *arborredis.CacheMetrics
	cache   *arborredis.JSONCache[cachedTree]
}

func TestJSONCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(JSONCacheSuite))
}

func (s *JSONCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.metrics = arborredis.NewCacheMetrics(prometheus.NewRegistry())
	s.cache = arborredis.NewJSONCache[cachedTree](s.redis.Client, "tree", time.Minute, arborredis.WithCacheMetrics(s.metrics))
}

func (s *JSONCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *JSONCacheSuite) TestRoundTrip() {
	ctx := context.Background()

	s.Run("miss returns not found", func() {
		_, err := s.cache.Get(ctx, "tree-001")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("set then get", func() {
		s.Require().NoError(s.cache.Set(ctx, "tree-001", &cachedTree{ID: "tree-001", Species: "Quercus robur"}))
		got, err := s.cache.Get(ctx, "tree-001")
		s.Require().NoError(err)
		s.Equal("Quercus robur", got.Species)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Hits.WithLabelValues("tree")))
	})

	s.Run("ttl applied", func() {
		ttl, err := s.redis.Client.TTL(ctx, "tree:tree-001").Result()
		s.Require().NoError(err)
		s.Greater(ttl, time.Duration(0))
	})

	s.Run("delete evicts", func() {
		s.Require().NoError(s.cache.Delete(ctx, "tree-001"))
		_, err := s.cache.Get(ctx, "tree-001")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *JSONCacheSuite) TestCorruptValueIsEvicted() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.Set(ctx, "tree:bad", "{not json", time.Minute).Err())

	_, err := s.cache.Get(ctx, "bad")
	s.True(errors.Is(err, sentinel.ErrNotFound))

	n, err := s.redis.Client.Exists(ctx, "tree:bad").Result()
	s.Require().NoError(err)
	s.Zero(n)
}

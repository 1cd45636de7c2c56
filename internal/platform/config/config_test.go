package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, StorageMemory, cfg.Storage)
		assert.Equal(t, 5*time.Second, cfg.TxTimeout)
		assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
		assert.Equal(t, "arbor.audit", cfg.Kafka.AuditTopic)
		assert.Empty(t, cfg.Redis.URL)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("ARBOR_ADDR", ":9090")
		t.Setenv("ARBOR_STORAGE", "postgres")
		t.Setenv("DATABASE_URL", "postgres://arbor@localhost/arbor")
		t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("REDIS_POOL_SIZE", "32")
		t.Setenv("TX_TIMEOUT", "2s")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 32, cfg.Redis.PoolSize)
		assert.Equal(t, 2*time.Second, cfg.TxTimeout)
	})

	t.Run("postgres without url fails", func(t *testing.T) {
		t.Setenv("ARBOR_STORAGE", "postgres")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("unknown storage fails", func(t *testing.T) {
		t.Setenv("ARBOR_STORAGE", "etcd")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("kafka needs postgres", func(t *testing.T) {
		t.Setenv("KAFKA_BROKERS", "k1:9092")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KAFKA_BROKERS")
	})

	t.Run("rate limit defaults and disable", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, 120, cfg.RateLimit.Mutations)
		assert.Equal(t, time.Minute, cfg.RateLimit.Window)

		t.Setenv("RATE_LIMIT_MUTATIONS", "0")
		t.Setenv("RATE_LIMIT_WINDOW", "0s")
		cfg, err = FromEnv()
		require.NoError(t, err)
		assert.Zero(t, cfg.RateLimit.Mutations)
	})

	t.Run("negative rate limit fails", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_MUTATIONS", "-1")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("malformed duration fails", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "soon")
		_, err := FromEnv()
		require.Error(t, err)
	})
}

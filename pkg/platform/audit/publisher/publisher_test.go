package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "arbor/pkg/platform/audit"
	"arbor/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestPublisher_Emit(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps and persists", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		metrics := NewMetrics(prometheus.NewRegistry())
		pub := New(store, WithMetrics(metrics))

		err := pub.Emit(ctx, audit.Event{
			Action:  string(audit.EventTreeTransferred),
			Subject: "tree:tree-001",
			ActorID: "alice",
		})
		require.NoError(t, err)

		events, err := store.ListBySubject(ctx, "tree:tree-001")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.NotEmpty(t, events[0].ID)
		assert.False(t, events[0].Timestamp.IsZero())
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsEmitted.WithLabelValues("compliance")))
	})

	t.Run("rejects incomplete events", func(t *testing.T) {
		pub := New(memory.NewInMemoryStore())
		require.Error(t, pub.Emit(ctx, audit.Event{Subject: "tree:x"}))
		require.Error(t, pub.Emit(ctx, audit.Event{Action: "tree_updated"}))
	})

	t.Run("fails closed on store error", func(t *testing.T) {
		metrics := NewMetrics(prometheus.NewRegistry())
		pub := New(failingStore{}, WithMetrics(metrics))
		err := pub.Emit(ctx, audit.Event{Action: "tree_updated", Subject: "tree:x"})
		require.Error(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PersistFailures))
	})
}

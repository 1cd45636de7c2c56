package tx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "arbor/pkg/domain-errors"
)

func TestSharded_SerializesSameKey(t *testing.T) {
	runner := NewSharded()
	ctx := WithLockKey(context.Background(), "tree:tree-001")

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runner.RunInTx(ctx, func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestSharded_Errors(t *testing.T) {
	t.Run("fn error is returned and commit hook skipped", func(t *testing.T) {
		var hooked bool
		runner := NewSharded(WithCommitHook(func(context.Context) error {
			hooked = true
			return nil
		}))
		boom := errors.New("boom")
		err := runner.RunInTx(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.False(t, hooked)
	})

	t.Run("commit hook runs after success", func(t *testing.T) {
		var hooked bool
		runner := NewSharded(WithCommitHook(func(context.Context) error {
			hooked = true
			return nil
		}))
		require.NoError(t, runner.RunInTx(context.Background(), func(context.Context) error { return nil }))
		assert.True(t, hooked)
	})

	t.Run("cancelled context is a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewSharded().RunInTx(ctx, func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("deadline applied when missing", func(t *testing.T) {
		runner := NewSharded(WithTimeout(time.Second))
		require.NoError(t, runner.RunInTx(context.Background(), func(txCtx context.Context) error {
			_, ok := txCtx.Deadline()
			assert.True(t, ok)
			return nil
		}))
	})
}

func TestExecutorPrefersTx(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
	assert.Equal(t, context.Background(), WithTx(context.Background(), nil))
}

func TestSharded_RollbackUndoesInReverse(t *testing.T) {
	runner := NewSharded()
	var order []string

	err := runner.RunInTx(context.Background(), func(txCtx context.Context) error {
		OnRollback(txCtx, func() { order = append(order, "first") })
		OnRollback(txCtx, func() { order = append(order, "second") })
		return errors.New("fail")
	})
	require.Error(t, err)
	assert.Equal(t, []string{"second", "first"}, order)

	order = nil
	require.NoError(t, runner.RunInTx(context.Background(), func(txCtx context.Context) error {
		OnRollback(txCtx, func() { order = append(order, "never") })
		return nil
	}))
	assert.Empty(t, order)

	// outside a transaction the call is ignored
	OnRollback(context.Background(), func() { t.Fatal("must not run") })
}

func TestSharded_CommitHookFailureRollsBack(t *testing.T) {
	runner := NewSharded(WithCommitHook(func(context.Context) error { return errors.New("disk full") }))
	undone := false
	err := runner.RunInTx(context.Background(), func(txCtx context.Context) error {
		OnRollback(txCtx, func() { undone = true })
		return nil
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.True(t, undone)
}

func TestSharded_CommitHookWaitsForOtherShards(t *testing.T) {
	var dirty atomic.Bool
	var sawDirty atomic.Bool
	runner := NewSharded(WithCommitHook(func(context.Context) error {
		if dirty.Load() {
			sawDirty.Store(true)
		}
		return nil
	}))

	keyA, keyB := "tree:tree-001", "site:site-001"
	require.NotEqual(t, shardFor(keyA), shardFor(keyB))

	started := make(chan struct{})
	release := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		failed <- runner.RunInTx(WithLockKey(context.Background(), keyA), func(txCtx context.Context) error {
			dirty.Store(true)
			OnRollback(txCtx, func() { dirty.Store(false) })
			close(started)
			<-release
			return errors.New("audit sink unavailable")
		})
	}()
	<-started

	committed := make(chan error, 1)
	bodyDone := make(chan struct{})
	go func() {
		committed <- runner.RunInTx(WithLockKey(context.Background(), keyB), func(context.Context) error {
			close(bodyDone)
			return nil
		})
	}()
	<-bodyDone

	select {
	case <-committed:
		t.Fatal("commit hook ran while another transaction was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.Error(t, <-failed)
	require.NoError(t, <-committed)
	assert.False(t, sawDirty.Load())
	assert.False(t, dirty.Load())
}

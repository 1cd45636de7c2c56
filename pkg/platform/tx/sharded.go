package tx

import (
	"context"
	"sync"
	"time"

	dErrors "arbor/pkg/domain-errors"
)

// numShards spreads entity locks so unrelated keys rarely contend.
const numShards = 128

// DefaultTimeout bounds a transaction when the caller set no deadline.
const DefaultTimeout = 5 * time.Second

type lockKeyCtx struct{}

// WithLockKey names the entity a transaction serializes on, e.g. "tree:tree-001".
// Transactions without a key share shard 0.
func WithLockKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, lockKeyCtx{}, key)
}

func lockKey(ctx context.Context) string {
	key, _ := ctx.Value(lockKeyCtx{}).(string)
	return key
}

type journalCtx struct{}

// journal collects undo steps for one in-memory transaction.
type journal struct {
	undo []func()
}

// OnRollback registers undo to run if the surrounding Sharded transaction
// fails. Undo steps run in reverse registration order. Outside a Sharded
// transaction it is a no-op, so memory stores can call it unconditionally.
func OnRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalCtx{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
}

// Sharded is the in-memory Runner. Every transaction on the same lock key runs
// to completion before the next one starts, which is what makes
// check-then-insert safe for memory stores.
//
// Transaction bodies hold quiesce for reading. The commit hook holds it for
// writing, so it only ever observes state with no body mid-flight on any
// shard. A shard is always taken before quiesce.
type Sharded struct {
	shards   [numShards]sync.Mutex
	quiesce  sync.RWMutex
	timeout  time.Duration
	onCommit func(ctx context.Context) error
}

type ShardedOption func(*Sharded)

func WithTimeout(d time.Duration) ShardedOption {
	return func(s *Sharded) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCommitHook runs after each successful transaction while its shard is
// still held and no other transaction body is running. The snapshot
// persister uses it.
func WithCommitHook(fn func(ctx context.Context) error) ShardedOption {
	return func(s *Sharded) { s.onCommit = fn }
}

func NewSharded(opts ...ShardedOption) *Sharded {
	s := &Sharded{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sharded) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	shard := shardFor(lockKey(ctx))
	s.shards[shard].Lock()
	defer s.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := &journal{}
	ctx = context.WithValue(ctx, journalCtx{}, j)
	if err := s.runBody(ctx, j, fn); err != nil {
		return err
	}
	if s.onCommit == nil {
		return nil
	}

	s.quiesce.Lock()
	defer s.quiesce.Unlock()
	if err := s.onCommit(ctx); err != nil {
		j.rollback()
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist snapshot")
	}
	return nil
}

// runBody undoes a failed body before releasing quiesce, so the commit hook
// never sees a half-applied transaction.
func (s *Sharded) runBody(ctx context.Context, j *journal, fn func(txCtx context.Context) error) error {
	s.quiesce.RLock()
	defer s.quiesce.RUnlock()
	if err := fn(ctx); err != nil {
		j.rollback()
		return err
	}
	return nil
}

func shardFor(key string) int {
	if key == "" {
		return 0
	}
	return int(fnv1a(key) % numShards)
}

// fnv1a is the 32-bit FNV-1a hash.
func fnv1a(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

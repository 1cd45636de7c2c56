// Package outbox relays audit events written to the outbox table onto the
// message bus. Delivery is at-least-once: a crash between publish and
// MarkPublished re-sends the batch on the next poll.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arbor/pkg/platform/tx"
)

// Entry is one pending outbox row.
type Entry struct {
	ID        string
	Key       string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// Source reads and acknowledges outbox rows.
type Source interface {
	FetchPending(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []string) error
}

// Publisher delivers entries to the bus. It returns only after the broker acknowledged them.
type Publisher interface {
	Publish(ctx context.Context, entries []Entry) error
}

const defaultBatchSize = 100

type Worker struct {
	source    Source
	publisher Publisher
	tx        tx.Runner
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func NewWorker(source Source, publisher Publisher, runner tx.Runner, interval time.Duration, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		publisher: publisher,
		tx:        runner,
		interval:  interval,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. Publish failures are logged and retried on
// the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := w.Drain(ctx)
			if err != nil {
				w.logger.WarnContext(ctx, "outbox relay failed", "error", err)
				continue
			}
			if n > 0 {
				w.logger.DebugContext(ctx, "outbox relayed", "count", n)
			}
		}
	}
}

// Drain relays one batch and returns how many entries were published.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	var published int
	err := w.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entries, err := w.source.FetchPending(txCtx, w.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if err := w.publisher.Publish(txCtx, entries); err != nil {
			return fmt.Errorf("publish outbox batch: %w", err)
		}
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := w.source.MarkPublished(txCtx, ids); err != nil {
			return err
		}
		published = len(entries)
		return nil
	})
	return published, err
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	plantingservice "arbor/internal/planting/service"
	diversitystore "arbor/internal/planting/store/diversity"
	eventstore "arbor/internal/planting/store/event"
	initiativestore "arbor/internal/planting/store/initiative"
	sitestore "arbor/internal/planting/store/site"
	"arbor/internal/platform/config"
	"arbor/internal/platform/postgres"
	"arbor/internal/platform/snapshot"
	treeservice "arbor/internal/tree/service"
	historystore "arbor/internal/tree/store/history"
	treestore "arbor/internal/tree/store/tree"
	audit "arbor/pkg/platform/audit"
	auditmemory "arbor/pkg/platform/audit/store/memory"
	auditpg "arbor/pkg/platform/audit/store/postgres"
	"arbor/pkg/platform/tx"
)

// backend bundles every store together with the transaction runner that
// makes their writes atomic.
type backend struct {
	trees    treeservice.TreeStore
	history  treeservice.HistoryStore
	planting plantingservice.Stores
	audit    audit.Store
	runner   tx.Runner

	// outbox is set only for postgres, where audit rows double as the relay queue.
	outbox *auditpg.Store
	health func(ctx context.Context) error
	close  func() error
}

func openBackend(ctx context.Context, cfg config.Server, logger *slog.Logger) (*backend, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		return openPostgres(ctx, cfg)
	case config.StorageSQLite:
		return openSQLite(ctx, cfg, logger)
	default:
		return openMemory(cfg), nil
	}
}

type memoryStores struct {
	trees       *treestore.InMemory
	history     *historystore.InMemory
	sites       *sitestore.InMemory
	initiatives *initiativestore.InMemory
	events      *eventstore.InMemory
	diversity   *diversitystore.InMemory
}

func newMemoryStores() memoryStores {
	return memoryStores{
		trees:       treestore.NewInMemory(),
		history:     historystore.NewInMemory(),
		sites:       sitestore.NewInMemory(),
		initiatives: initiativestore.NewInMemory(),
		events:      eventstore.NewInMemory(),
		diversity:   diversitystore.NewInMemory(),
	}
}

func (m memoryStores) backend(runner tx.Runner) *backend {
	return &backend{
		trees:   m.trees,
		history: m.history,
		planting: plantingservice.Stores{
			Sites:       m.sites,
			Initiatives: m.initiatives,
			Events:      m.events,
			Diversity:   m.diversity,
		},
		audit:  auditmemory.NewInMemoryStore(),
		runner: runner,
		health: func(context.Context) error { return nil },
		close:  func() error { return nil },
	}
}

func openMemory(cfg config.Server) *backend {
	return newMemoryStores().backend(tx.NewSharded(tx.WithTimeout(cfg.TxTimeout)))
}

// openSQLite restores the in-memory stores from the snapshot file and
// rewrites it after every committed transaction.
func openSQLite(ctx context.Context, cfg config.Server, logger *slog.Logger) (*backend, error) {
	snap, err := snapshot.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	m := newMemoryStores()
	snap.Register("trees", m.trees)
	snap.Register("tree_history", m.history)
	snap.Register("planting_sites", m.sites)
	snap.Register("planting_initiatives", m.initiatives)
	snap.Register("planting_events", m.events)
	snap.Register("diversity_goals", m.diversity)
	if err := snap.Load(ctx); err != nil {
		_ = snap.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	logger.InfoContext(ctx, "snapshot loaded", "path", snap.Path())

	b := m.backend(tx.NewSharded(tx.WithTimeout(cfg.TxTimeout), tx.WithCommitHook(snap.Persist)))
	b.close = snap.Close
	return b, nil
}

func openPostgres(ctx context.Context, cfg config.Server) (*backend, error) {
	db, err := postgres.Open(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	outbox := auditpg.New(db)
	return &backend{
		trees:   treestore.NewPostgres(db),
		history: historystore.NewPostgres(db),
		planting: plantingservice.Stores{
			Sites:       sitestore.NewPostgres(db),
			Initiatives: initiativestore.NewPostgres(db),
			Events:      eventstore.NewPostgres(db),
			Diversity:   diversitystore.NewPostgres(db),
		},
		audit:  outbox,
		runner: postgres.NewTxRunner(db, cfg.TxTimeout),
		outbox: outbox,
		health: db.PingContext,
		close:  db.Close,
	}, nil
}

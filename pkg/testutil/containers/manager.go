//go:build integration

// Package containers starts shared testcontainers for integration suites.
// Containers are started once per test binary and reused; Ryuk removes them.
package containers

import (
	"sync"
	"testing"
)

type Manager struct {
	pgOnce sync.Once
	pg     *PostgresContainer
	pgErr  error
	rdOnce sync.Once
	rd     *RedisContainer
	rdErr  error
	kfOnce sync.Once
	kf     *RedpandaContainer
	kfErr  error
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() { manager = &Manager{} })
	return manager
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.pgOnce.Do(func() { m.pg, m.pgErr = startPostgres() })
	if m.pgErr != nil {
		t.Fatalf("postgres container: %v", m.pgErr)
	}
	return m.pg
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.rdOnce.Do(func() { m.rd, m.rdErr = startRedis() })
	if m.rdErr != nil {
		t.Fatalf("redis container: %v", m.rdErr)
	}
	return m.rd
}

func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.kfOnce.Do(func() { m.kf, m.kfErr = startRedpanda() })
	if m.kfErr != nil {
		t.Fatalf("redpanda container: %v", m.kfErr)
	}
	return m.kf
}

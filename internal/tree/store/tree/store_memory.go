// Package tree persists tree records.
//
// Stores return sentinel errors; the service maps them to domain codes.
// Callers serialize mutations on the same tree through tx.Runner, so the
// in-memory check-then-insert in Create is safe. Writes register undo steps
// with tx.OnRollback so a failed transaction leaves nothing behind. Writes land
// in the shared map before commit, so the service reads under the same lock
// key to avoid observing them early.
package tree

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"arbor/internal/tree/models"
	"arbor/pkg/domain"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/platform/tx"
)

// InMemory keeps trees in a map. Values are copied in and out so callers
// never share a pointer with the store.
type InMemory struct {
	mu    sync.RWMutex
	trees map[domain.TreeID]models.Tree
}

func NewInMemory() *InMemory {
	return &InMemory{trees: make(map[domain.TreeID]models.Tree)}
}

// Create inserts t, failing with sentinel.ErrAlreadyUsed if the id is taken.
func (s *InMemory) Create(ctx context.Context, t *models.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trees[t.ID]; exists {
		return fmt.Errorf("tree %s: %w", t.ID, sentinel.ErrAlreadyUsed)
	}
	s.trees[t.ID] = *t
	tx.OnRollback(ctx, func() { s.remove(t.ID) })
	return nil
}

func (s *InMemory) remove(id domain.TreeID) {
	s.mu.Lock()
	delete(s.trees, id)
	s.mu.Unlock()
}

func (s *InMemory) restore(t models.Tree) {
	s.mu.Lock()
	s.trees[t.ID] = t
	s.mu.Unlock()
}

func (s *InMemory) FindByID(_ context.Context, id domain.TreeID) (*models.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trees[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

// FindByIDForUpdate is FindByID; the transaction runner already holds the
// tree's lock.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.TreeID) (*models.Tree, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemory) Update(ctx context.Context, t *models.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, ok := s.trees[t.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.trees[t.ID] = *t
	tx.OnRollback(ctx, func() { s.restore(previous) })
	return nil
}

// ExportSnapshot encodes every tree ordered by id.
func (s *InMemory) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	out := make([]models.Tree, 0, len(s.trees))
	for _, t := range s.trees {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return json.Marshal(out)
}

// ImportSnapshot replaces the store contents.
func (s *InMemory) ImportSnapshot(data []byte) error {
	var in []models.Tree
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	trees := make(map[domain.TreeID]models.Tree, len(in))
	for _, t := range in {
		trees[t.ID] = t
	}
	s.mu.Lock()
	s.trees = trees
	s.mu.Unlock()
	return nil
}

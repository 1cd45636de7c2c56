// Package diversity persists the registry-wide species diversity goals.
package diversity

import (
	"context"
	"encoding/json"
	"sync"

	"arbor/internal/planting/models"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/platform/tx"
)

// InMemory holds the single goals record; nil until first saved.
type InMemory struct {
	mu    sync.RWMutex
	goals *models.SpeciesDiversityGoals
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Get(_ context.Context) (*models.SpeciesDiversityGoals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.goals == nil {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.goals), nil
}

func (s *InMemory) GetForUpdate(ctx context.Context) (*models.SpeciesDiversityGoals, error) {
	return s.Get(ctx)
}

// Save replaces the record.
func (s *InMemory) Save(ctx context.Context, goals *models.SpeciesDiversityGoals) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.goals
	s.goals = clone(goals)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		s.goals = previous
		s.mu.Unlock()
	})
	return nil
}

func clone(g *models.SpeciesDiversityGoals) *models.SpeciesDiversityGoals {
	return &models.SpeciesDiversityGoals{
		TargetPercentages:  append([]models.SpeciesTarget{}, g.TargetPercentages...),
		CurrentPercentages: append([]models.SpeciesObservation{}, g.CurrentPercentages...),
		LastUpdated:        g.LastUpdated,
	}
}

func (s *InMemory) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.goals)
}

func (s *InMemory) ImportSnapshot(data []byte) error {
	var in *models.SpeciesDiversityGoals
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.mu.Lock()
	s.goals = in
	s.mu.Unlock()
	return nil
}

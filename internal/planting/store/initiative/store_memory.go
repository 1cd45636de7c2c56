// Package initiative persists planting initiatives.
package initiative

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"arbor/internal/planting/models"
	"arbor/pkg/domain"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/platform/tx"
)

type InMemory struct {
	mu          sync.RWMutex
	initiatives map[domain.InitiativeID]models.PlantingInitiative
}

func NewInMemory() *InMemory {
	return &InMemory{initiatives: make(map[domain.InitiativeID]models.PlantingInitiative)}
}

func (s *InMemory) Create(ctx context.Context, in *models.PlantingInitiative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.initiatives[in.ID]; exists {
		return fmt.Errorf("initiative %s: %w", in.ID, sentinel.ErrAlreadyUsed)
	}
	s.initiatives[in.ID] = *in
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		delete(s.initiatives, in.ID)
		s.mu.Unlock()
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.InitiativeID) (*models.PlantingInitiative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.initiatives[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &in, nil
}

func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.InitiativeID) (*models.PlantingInitiative, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemory) Update(ctx context.Context, in *models.PlantingInitiative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, ok := s.initiatives[in.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.initiatives[in.ID] = *in
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		s.initiatives[previous.ID] = previous
		s.mu.Unlock()
	})
	return nil
}

func (s *InMemory) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	out := make([]models.PlantingInitiative, 0, len(s.initiatives))
	for _, in := range s.initiatives {
		out = append(out, in)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return json.Marshal(out)
}

func (s *InMemory) ImportSnapshot(data []byte) error {
	var in []models.PlantingInitiative
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	initiatives := make(map[domain.InitiativeID]models.PlantingInitiative, len(in))
	for _, i := range in {
		initiatives[i.ID] = i
	}
	s.mu.Lock()
	s.initiatives = initiatives
	s.mu.Unlock()
	return nil
}

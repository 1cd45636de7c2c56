// Package event persists planting events, keyed by initiative and event id.
package event

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

type key struct {
	initiative domain.InitiativeID
	event      domain.EventID
}

type InMemory struct {
	mu     sync.RWMutex
	events map[key]models.PlantingEvent
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[key]models.PlantingEvent)}
}

func keyOf(e *models.PlantingEvent) key {
	return key{initiative: e.InitiativeID, event: e.ID}
}

func (s *InMemory) Create(ctx context.Context, e *models.PlantingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(e)
	if _, exists := s.events[k]; exists {
		return fmt.Errorf("event %s/%s: %w", e.InitiativeID, e.ID, sentinel.ErrAlreadyUsed)
	}
	s.events[k] = clone(*e)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		delete(s.events, k)
		s.mu.Unlock()
	})
	return nil
}

func (s *InMemory) Find(_ context.Context, initiativeID domain.InitiativeID, id domain.EventID) (*models.PlantingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[key{initiative: initiativeID, event: id}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clone(e)
	return &out, nil
}

func (s *InMemory) FindForUpdate(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID) (*models.PlantingEvent, error) {
	return s.Find(ctx, initiativeID, id)
}

func (s *InMemory) Update(ctx context.Context, e *models.PlantingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(e)
	previous, ok := s.events[k]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.events[k] = clone(*e)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		s.events[k] = previous
		s.mu.Unlock()
	})
	return nil
}

// ListByInitiative returns the initiative's events ordered by date, then id.
func (s *InMemory) ListByInitiative(_ context.Context, initiativeID domain.InitiativeID) ([]*models.PlantingEvent, error) {
	s.mu.RLock()
	out := make([]*models.PlantingEvent, 0)
	for k, e := range s.events {
		if k.initiative == initiativeID {
			c := clone(e)
			out = append(out, &c)
		}
	}
	s.mu.RUnlock()
	sortEvents(out)
	return out, nil
}

func sortEvents(events []*models.PlantingEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].ID < events[j].ID
	})
}

func clone(e models.PlantingEvent) models.PlantingEvent {
	e.TargetSites = append([]domain.SiteID{}, e.TargetSites...)
	return e
}

func (s *InMemory) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	out := make([]models.PlantingEvent, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].InitiativeID != out[j].InitiativeID {
			return out[i].InitiativeID < out[j].InitiativeID
		}
		return out[i].ID < out[j].ID
	})
	return json.Marshal(out)
}

func (s *InMemory) ImportSnapshot(data []byte) error {
	var in []models.PlantingEvent
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	events := make(map[key]models.PlantingEvent, len(in))
	for i := range in {
		events[keyOf(&in[i])] = clone(in[i])
	}
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	return nil
}

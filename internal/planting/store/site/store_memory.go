// Package site persists planting sites.
package site

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
	mu    sync.RWMutex
	sites map[domain.SiteID]models.PlantingSite
}

func NewInMemory() *InMemory {
	return &InMemory{sites: make(map[domain.SiteID]models.PlantingSite)}
}

func (s *InMemory) Create(ctx context.Context, site *models.PlantingSite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sites[site.ID]; exists {
		return fmt.Errorf("site %s: %w", site.ID, sentinel.ErrAlreadyUsed)
	}
	s.sites[site.ID] = clone(*site)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		delete(s.sites, site.ID)
		s.mu.Unlock()
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.SiteID) (*models.PlantingSite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.sites[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clone(site)
	return &out, nil
}

func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.SiteID) (*models.PlantingSite, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemory) Update(ctx context.Context, site *models.PlantingSite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, ok := s.sites[site.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.sites[site.ID] = clone(*site)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		s.sites[previous.ID] = previous
		s.mu.Unlock()
	})
	return nil
}

// clone detaches the species slice from the caller's copy.
func clone(site models.PlantingSite) models.PlantingSite {
	site.RecommendedSpecies = append([]string{}, site.RecommendedSpecies...)
	return site
}

func (s *InMemory) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	out := make([]models.PlantingSite, 0, len(s.sites))
	for _, site := range s.sites {
		out = append(out, site)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return json.Marshal(out)
}

func (s *InMemory) ImportSnapshot(data []byte) error {
	var in []models.PlantingSite
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	sites := make(map[domain.SiteID]models.PlantingSite, len(in))
	for _, site := range in {
		sites[site.ID] = clone(site)
	}
	s.mu.Lock()
	s.sites = sites
	s.mu.Unlock()
	return nil
}

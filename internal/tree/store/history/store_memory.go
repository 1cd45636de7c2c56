// Package history keeps the append-only audit trail of each tree.
package history

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"arbor/internal/tree/models"
	"arbor/pkg/domain"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/platform/tx"
)

// InMemory is an indexed log per tree. Records are stored by value and never
// modified after Append.
type InMemory struct {
	mu   sync.RWMutex
	logs map[domain.TreeID][]models.HistoryRecord
}

func NewInMemory() *InMemory {
	return &InMemory{logs: make(map[domain.TreeID][]models.HistoryRecord)}
}

// Append assigns the next sequence for rec.TreeID and stores a copy.
func (s *InMemory) Append(ctx context.Context, rec *models.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Sequence = int64(len(s.logs[rec.TreeID]))
	s.logs[rec.TreeID] = append(s.logs[rec.TreeID], *rec)
	tx.OnRollback(ctx, func() { s.truncate(rec.TreeID, rec.Sequence) })
	return nil
}

// truncate drops records from sequence onwards. Only rollback calls it, while
// the tree's transaction lock is still held.
func (s *InMemory) truncate(treeID domain.TreeID, sequence int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log := s.logs[treeID]; int64(len(log)) > sequence {
		s.logs[treeID] = log[:sequence]
	}
	if len(s.logs[treeID]) == 0 {
		delete(s.logs, treeID)
	}
}

func (s *InMemory) Get(_ context.Context, treeID domain.TreeID, sequence int64) (*models.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[treeID]
	if sequence < 0 || sequence >= int64(len(log)) {
		return nil, sentinel.ErrNotFound
	}
	rec := log[sequence]
	return &rec, nil
}

func (s *InMemory) Count(_ context.Context, treeID domain.TreeID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.logs[treeID])), nil
}

func (s *InMemory) List(_ context.Context, treeID domain.TreeID) ([]*models.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[treeID]
	out := make([]*models.HistoryRecord, len(log))
	for i := range log {
		rec := log[i]
		out[i] = &rec
	}
	return out, nil
}

func (s *InMemory) ExportSnapshot() ([]byte, error) {
	s.mu.RLock()
	var out []models.HistoryRecord
	for _, log := range s.logs {
		out = append(out, log...)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].TreeID != out[j].TreeID {
			return out[i].TreeID < out[j].TreeID
		}
		return out[i].Sequence < out[j].Sequence
	})
	return json.Marshal(out)
}

// ImportSnapshot rebuilds the logs. Records must arrive in sequence order per
// tree, which ExportSnapshot guarantees.
func (s *InMemory) ImportSnapshot(data []byte) error {
	var in []models.HistoryRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	logs := make(map[domain.TreeID][]models.HistoryRecord)
	for _, rec := range in {
		rec.Sequence = int64(len(logs[rec.TreeID]))
		logs[rec.TreeID] = append(logs[rec.TreeID], rec)
	}
	s.mu.Lock()
	s.logs = logs
	s.mu.Unlock()
	return nil
}

// Package bucket holds sliding-window counters keyed by caller.
package bucket

import (
	"context"
	"sync"
	"time"

	"arbor/internal/ratelimit/models"
)

// InMemory keeps one sliding window per key. Not shared between processes;
// use Redis when running more than one instance.
type InMemory struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{buckets: make(map[string][]time.Time), now: time.Now}
}

func (s *InMemory) Allow(_ context.Context, key string, policy models.Policy) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	window := trim(s.buckets[key], now.Add(-policy.Window))

	if len(window) >= policy.Limit {
		s.buckets[key] = window
		resetAt := window[0].Add(policy.Window)
		return &models.Result{
			Allowed:    false,
			Limit:      policy.Limit,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	window = append(window, now)
	s.buckets[key] = window
	return &models.Result{
		Allowed:   true,
		Limit:     policy.Limit,
		Remaining: policy.Limit - len(window),
		ResetAt:   window[0].Add(policy.Window),
	}, nil
}

func (s *InMemory) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// trim drops timestamps at or before cutoff. Timestamps are appended in order.
func trim(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(ts); i++ {
		if ts[i].After(cutoff) {
			break
		}
	}
	return ts[i:]
}

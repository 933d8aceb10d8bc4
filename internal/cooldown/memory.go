package cooldown

import (
	"context"
	"sync"
	"time"
)

const pruneThreshold = 4096

// memoryStore keeps cooldown expiries in a map. Expired keys are reclaimed
// lazily on the next Acquire and swept wholesale once the map grows past
// pruneThreshold.
type memoryStore struct {
	mu  sync.Mutex
	m   map[string]time.Time
	now func() time.Time
}

// NewMemoryStore returns an in-process cooldown store. Suitable for single
// instance deployments and tests.
func NewMemoryStore() Store {
	return &memoryStore{
		m:   make(map[string]time.Time),
		now: time.Now,
	}
}

func (s *memoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.m[key]; ok && now.Before(exp) {
		return false, nil
	}

	if len(s.m) >= pruneThreshold {
		s.prune(now)
	}
	s.m[key] = now.Add(ttl)
	return true, nil
}

// prune removes expired entries. Caller must hold s.mu.
func (s *memoryStore) prune(now time.Time) {
	for key, exp := range s.m {
		if !now.Before(exp) {
			delete(s.m, key)
		}
	}
}

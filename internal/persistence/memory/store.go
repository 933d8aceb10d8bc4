// Package memory provides an in-process savings ledger used by tests, the
// offline evaluate command, and deployments that run without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pausewise/pausewise/internal/persistence"
)

// Store keeps each user's ledger in insertion order behind an RWMutex
type Store struct {
	mu      sync.RWMutex
	entries map[string][]persistence.LedgerEntry
}

var _ persistence.LedgerRepo = (*Store)(nil)

// NewStore creates an empty in-memory ledger
func NewStore() *Store {
	return &Store{
		entries: make(map[string][]persistence.LedgerEntry),
	}
}

// Insert appends a ledger entry
func (s *Store) Insert(ctx context.Context, entry persistence.LedgerEntry) (persistence.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Confirmed() {
		if estimateID := entry.OriginalEstimateID(); estimateID != "" {
			for _, existing := range s.entries[entry.UserID] {
				if existing.Confirmed() && existing.OriginalEstimateID() == estimateID {
					return persistence.LedgerEntry{}, fmt.Errorf("%w: %s", persistence.ErrDuplicateConfirmation, estimateID)
				}
			}
		}
	}

	s.entries[entry.UserID] = append(s.entries[entry.UserID], cloneEntry(entry))
	return entry, nil
}

// GetByID retrieves a user's entry by id
func (s *Store) GetByID(ctx context.Context, userID, id string) (*persistence.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries[userID] {
		if entry.ID == id {
			clone := cloneEntry(entry)
			return &clone, nil
		}
	}
	return nil, nil
}

// ListByUser retrieves the newest entries first
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]persistence.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.entries[userID]
	out := make([]persistence.LedgerEntry, 0, len(stored))
	for i := len(stored) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneEntry(stored[i]))
	}
	return out, nil
}

// ListSince retrieves entries created at or after since, oldest first
func (s *Store) ListSince(ctx context.Context, userID string, since time.Time) ([]persistence.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.LedgerEntry
	for _, entry := range s.entries[userID] {
		if since.IsZero() || !entry.CreatedAt.Before(since) {
			out = append(out, cloneEntry(entry))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// FindConfirmation returns the confirmation recorded against an estimate
func (s *Store) FindConfirmation(ctx context.Context, userID, originalEstimateID string) (*persistence.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries[userID] {
		if entry.Confirmed() && entry.OriginalEstimateID() == originalEstimateID {
			clone := cloneEntry(entry)
			return &clone, nil
		}
	}
	return nil, nil
}

// Count returns the user's total entry count
func (s *Store) Count(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries[userID])), nil
}

// cloneEntry copies the metadata map so callers cannot mutate stored state
func cloneEntry(entry persistence.LedgerEntry) persistence.LedgerEntry {
	if entry.Metadata != nil {
		metadata := make(map[string]interface{}, len(entry.Metadata))
		for k, v := range entry.Metadata {
			metadata[k] = v
		}
		entry.Metadata = metadata
	}
	return entry
}

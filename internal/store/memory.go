package store

import (
	"context"
	"sync"
	"time"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// MemoryStore is an in-process QuestionStore for single-instance deployments
// and tests. Entries are timestamped so a sweeper can drop abandoned attempts.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]memoryEntry
}

type memoryEntry struct {
	questions []model.Question
	createdAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[Key]memoryEntry),
	}
}

func (s *MemoryStore) Put(_ context.Context, key Key, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{
		questions: questions,
		createdAt: time.Now(),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key Key) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.questions, nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Sweep removes entries older than maxAge and reports how many were dropped.
// Finalization deletes entries explicitly; this only catches attempts that
// were started and then abandoned.
func (s *MemoryStore) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if entry.createdAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

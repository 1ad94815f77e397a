package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

func testQuestions() []model.Question {
	return []model.Question{
		{
			ID:   1,
			Text: "What does a voltmeter measure?",
			Options: map[string]string{
				"A": "Voltage", "B": "Current", "C": "Resistance", "D": "Power",
			},
			CorrectAnswer: "A",
		},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := Key{StudentID: 1, ExperimentID: 2, SessionID: uuid.New()}

	if err := s.Put(ctx, key, testQuestions()); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].CorrectAnswer != "A" {
		t.Fatalf("got %+v", got)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()
	key := Key{StudentID: 9, ExperimentID: 9, SessionID: uuid.New()}

	if _, err := s.Get(context.Background(), key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	old := Key{StudentID: 1, ExperimentID: 1, SessionID: uuid.New()}
	fresh := Key{StudentID: 2, ExperimentID: 1, SessionID: uuid.New()}

	if err := s.Put(ctx, old, testQuestions()); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Backdate the first entry past the sweep cutoff.
	s.mu.Lock()
	entry := s.entries[old]
	entry.createdAt = time.Now().Add(-2 * time.Hour)
	s.entries[old] = entry
	s.mu.Unlock()

	if err := s.Put(ctx, fresh, testQuestions()); err != nil {
		t.Fatalf("put: %v", err)
	}

	if removed := s.Sweep(time.Hour); removed != 1 {
		t.Fatalf("sweep removed %d entries, want 1", removed)
	}
	if _, err := s.Get(ctx, old); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale entry survived sweep: %v", err)
	}
	if _, err := s.Get(ctx, fresh); err != nil {
		t.Fatalf("fresh entry swept: %v", err)
	}
}

// Package store holds the full question sets (correct answers included) of
// in-progress viva attempts. Students only ever receive the stripped form, so
// this data never leaves the server until the attempt is finalized.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// ErrNotFound is returned when no question set exists for the attempt.
// Callers treat this as an expired or never-started attempt.
var ErrNotFound = errors.New("question set not found")

// Key identifies one attempt's question set.
type Key struct {
	StudentID    int
	ExperimentID int
	SessionID    uuid.UUID
}

// QuestionStore persists question sets for the lifetime of an attempt.
type QuestionStore interface {
	Put(ctx context.Context, key Key, questions []model.Question) error
	Get(ctx context.Context, key Key) ([]model.Question, error)
	Delete(ctx context.Context, key Key) error
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/model"
	"github.com/mkce-labs/vivalab-backend/internal/repository"
	"github.com/mkce-labs/vivalab-backend/internal/roster"
)

// StudentResult is one finished attempt as shown to the student. The answer
// key stays hidden; only the aggregate outcome is exposed.
type StudentResult struct {
	SessionID     string              `json:"session_id"`
	ExperimentID  int                 `json:"experiment_id"`
	Status        model.SessionStatus `json:"status"`
	ObtainedMarks *int                `json:"obtained_marks"`
	TotalMarks    int                 `json:"total_marks"`
	CompletedAt   string              `json:"completed_at,omitempty"`
}

// ResultsService assembles result views for students and teachers.
type ResultsService struct {
	sessions *repository.VivaSessionRepository
	roster   roster.Store
	log      zerolog.Logger
}

// NewResultsService creates a new ResultsService.
func NewResultsService(sessions *repository.VivaSessionRepository, rosterStore roster.Store, log zerolog.Logger) *ResultsService {
	return &ResultsService{
		sessions: sessions,
		roster:   rosterStore,
		log:      log.With().Str("component", "results_service").Logger(),
	}
}

// StudentResults lists a student's finished attempts, newest first.
func (s *ResultsService) StudentResults(ctx context.Context, studentID int) ([]StudentResult, error) {
	sessions, err := s.sessions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	results := make([]StudentResult, 0, len(sessions))
	for _, sess := range sessions {
		if !sess.Status.Terminal() {
			continue
		}
		r := StudentResult{
			SessionID:     sess.ID.String(),
			ExperimentID:  sess.ExperimentID,
			Status:        sess.Status,
			ObtainedMarks: sess.ObtainedMarks,
			TotalMarks:    sess.TotalMarks,
		}
		if sess.CompletedAt != nil {
			r.CompletedAt = sess.CompletedAt.Format("2006-01-02 15:04:05")
		}
		results = append(results, r)
	}
	return results, nil
}

// ExperimentResults lists every finished attempt for an experiment, joined
// with student identity for the teacher's review table.
func (s *ResultsService) ExperimentResults(ctx context.Context, experimentID int) ([]repository.VivaResult, error) {
	return s.sessions.ListResultsByExperiment(ctx, experimentID)
}

// RosterMarks reads the marks grid straight from the spreadsheet, so a
// teacher can confirm the export pipeline landed every mark. Returns nil
// when no roster is configured.
func (s *ResultsService) RosterMarks(ctx context.Context) ([]roster.Student, error) {
	students, err := s.roster.AllStudentsWithMarks(ctx)
	if err != nil {
		if errors.Is(err, roster.ErrUnavailable) {
			return nil, roster.ErrUnavailable
		}
		return nil, fmt.Errorf("read roster marks: %w", err)
	}
	return students, nil
}

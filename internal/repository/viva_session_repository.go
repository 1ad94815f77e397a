package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// VivaResult combines student identity with a finished session, for the
// teacher-facing results view.
type VivaResult struct {
	SessionID     uuid.UUID           `json:"session_id"`
	StudentID     int                 `json:"student_id"`
	RegNo         string              `json:"reg_no"`
	StudentName   string              `json:"student_name"`
	ExperimentID  int                 `json:"experiment_id"`
	Status        model.SessionStatus `json:"status"`
	ObtainedMarks *int                `json:"obtained_marks"`
	TotalMarks    int                 `json:"total_marks"`
	StartedAt     time.Time           `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
}

// VivaSessionRepository handles viva session and answer data access.
type VivaSessionRepository struct {
	pool *pgxpool.Pool
}

// NewVivaSessionRepository creates a new VivaSessionRepository.
func NewVivaSessionRepository(pool *pgxpool.Pool) *VivaSessionRepository {
	return &VivaSessionRepository{pool: pool}
}

const sessionColumns = `id, student_id, schedule_id, experiment_id, status, total_marks, obtained_marks,
	generated_questions, violation_detected, violation_reason, violation_count,
	started_at, completed_at, created_at`

func scanSession(row interface{ Scan(...any) error }) (*model.VivaSession, error) {
	s := &model.VivaSession{}
	err := row.Scan(&s.ID, &s.StudentID, &s.ScheduleID, &s.ExperimentID, &s.Status, &s.TotalMarks, &s.ObtainedMarks,
		&s.GeneratedQuestions, &s.ViolationDetected, &s.ViolationReason, &s.ViolationCount,
		&s.StartedAt, &s.CompletedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves one session by primary key.
func (r *VivaSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VivaSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM viva_sessions WHERE id = $1`, id))
}

// GetByStudentAndExperiment retrieves the single session a student has for
// an experiment, if any.
func (r *VivaSessionRepository) GetByStudentAndExperiment(ctx context.Context, studentID, experimentID int) (*model.VivaSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM viva_sessions
		 WHERE student_id = $1 AND experiment_id = $2`, studentID, experimentID))
}

// Create inserts a new in-progress session. The unique index on
// (student_id, experiment_id) makes concurrent starts race-safe: the loser
// hits DO NOTHING, gets pgx.ErrNoRows from the scan, and refetches.
func (r *VivaSessionRepository) Create(ctx context.Context, s *model.VivaSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO viva_sessions (student_id, schedule_id, experiment_id, status, total_marks, generated_questions)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (student_id, experiment_id) DO NOTHING
		 RETURNING id, started_at, created_at`,
		s.StudentID, s.ScheduleID, s.ExperimentID, model.SessionStatusInProgress, s.TotalMarks, s.GeneratedQuestions,
	).Scan(&s.ID, &s.StartedAt, &s.CreatedAt)
}

// UpsertAnswer saves one answer, overwriting any earlier submission for the
// same question number.
func (r *VivaSessionRepository) UpsertAnswer(ctx context.Context, sessionID uuid.UUID, questionNumber int, answerText string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_answers (viva_session_id, question_number, answer_text)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (viva_session_id, question_number) DO UPDATE SET
		   answer_text = EXCLUDED.answer_text,
		   updated_at = NOW()`,
		sessionID, questionNumber, answerText)
	return err
}

// ListAnswers retrieves a session's answers in question order.
func (r *VivaSessionRepository) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, viva_session_id, question_number, answer_text, marks_obtained, teacher_feedback, created_at, updated_at
		 FROM student_answers
		 WHERE viva_session_id = $1
		 ORDER BY question_number`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.StudentAnswer
	for rows.Next() {
		var a model.StudentAnswer
		if err := rows.Scan(&a.ID, &a.VivaSessionID, &a.QuestionNumber, &a.AnswerText, &a.MarksObtained, &a.TeacherFeedback, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// RecordViolation flags an in-progress session and returns the new
// violation count. Returns ErrAlreadyFinalized when the session has already
// reached a terminal state.
func (r *VivaSessionRepository) RecordViolation(ctx context.Context, sessionID uuid.UUID, reason string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`UPDATE viva_sessions
		 SET violation_detected = TRUE, violation_reason = $1, violation_count = violation_count + 1
		 WHERE id = $2 AND status = $3
		 RETURNING violation_count`,
		reason, sessionID, model.SessionStatusInProgress,
	).Scan(&count)
	if err != nil {
		if isNoRows(err) {
			return 0, ErrAlreadyFinalized
		}
		return 0, err
	}
	return count, nil
}

// FinalizeCompleted performs the terminal transition to completed. The
// status guard in the WHERE clause makes the transition a compare-and-set:
// exactly one finalize call can win, every later one gets
// ErrAlreadyFinalized.
func (r *VivaSessionRepository) FinalizeCompleted(ctx context.Context, sessionID uuid.UUID, obtainedMarks int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE viva_sessions
		 SET status = $1, obtained_marks = $2, completed_at = NOW()
		 WHERE id = $3 AND status = $4`,
		model.SessionStatusCompleted, obtainedMarks, sessionID, model.SessionStatusInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyFinalized
	}
	return nil
}

// FinalizeViolated performs the terminal transition to violated. Marks are
// forced to zero regardless of answers recorded so far.
func (r *VivaSessionRepository) FinalizeViolated(ctx context.Context, sessionID uuid.UUID, reason string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE viva_sessions
		 SET status = $1, obtained_marks = 0, violation_detected = TRUE, violation_reason = $2, completed_at = NOW()
		 WHERE id = $3 AND status = $4`,
		model.SessionStatusViolated, reason, sessionID, model.SessionStatusInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyFinalized
	}
	return nil
}

// WriteAnswerMarks persists per-question marks after scoring.
func (r *VivaSessionRepository) WriteAnswerMarks(ctx context.Context, sessionID uuid.UUID, marks map[int]int) error {
	for questionNumber, mark := range marks {
		_, err := r.pool.Exec(ctx,
			`UPDATE student_answers SET marks_obtained = $1, updated_at = NOW()
			 WHERE viva_session_id = $2 AND question_number = $3`,
			mark, sessionID, questionNumber)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByStudent retrieves all sessions of one student, newest first.
func (r *VivaSessionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.VivaSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM viva_sessions
		 WHERE student_id = $1
		 ORDER BY started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.VivaSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// ListResultsByExperiment retrieves finished sessions for an experiment,
// joined with student identity for the teacher's result view.
func (r *VivaSessionRepository) ListResultsByExperiment(ctx context.Context, experimentID int) ([]VivaResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT vs.id, vs.student_id, st.reg_no, st.name, vs.experiment_id, vs.status,
		        vs.obtained_marks, vs.total_marks, vs.started_at, vs.completed_at
		 FROM viva_sessions vs
		 JOIN students st ON vs.student_id = st.id
		 WHERE vs.experiment_id = $1 AND vs.status IN ($2, $3)
		 ORDER BY st.reg_no`,
		experimentID, model.SessionStatusCompleted, model.SessionStatusViolated,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []VivaResult
	for rows.Next() {
		var v VivaResult
		if err := rows.Scan(&v.SessionID, &v.StudentID, &v.RegNo, &v.StudentName, &v.ExperimentID, &v.Status,
			&v.ObtainedMarks, &v.TotalMarks, &v.StartedAt, &v.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

// ResetInProgress deletes all in-progress sessions and their answers.
// Maintenance hook for clearing attempts stranded by a mid-window outage.
func (r *VivaSessionRepository) ResetInProgress(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM viva_sessions WHERE status = $1`,
		model.SessionStatusInProgress)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

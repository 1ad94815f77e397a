package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/config"
	"github.com/mkce-labs/vivalab-backend/internal/generator"
	"github.com/mkce-labs/vivalab-backend/internal/model"
	"github.com/mkce-labs/vivalab-backend/internal/repository"
	"github.com/mkce-labs/vivalab-backend/internal/schedule"
	"github.com/mkce-labs/vivalab-backend/internal/scorer"
	"github.com/mkce-labs/vivalab-backend/internal/store"
)

// Viva attempt errors.
var (
	ErrExperimentNotFound = errors.New("experiment not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotScheduled       = errors.New("no viva scheduled for this experiment")
	ErrAlreadyAttempted   = errors.New("viva already attempted for this experiment")
	ErrNotOwner           = errors.New("session belongs to another student")
	ErrNotInProgress      = errors.New("session is not in progress")
	ErrQuestionOutOfRange = errors.New("question number out of range")
	ErrWindowClosed       = errors.New("attempt window is closed")
	ErrWindowExpired      = errors.New("attempt window expired")
)

// WindowClosedError carries the concrete window status so handlers can tell
// "come back at 09:00" from "you missed it".
type WindowClosedError struct {
	Status schedule.Status
}

func (e *WindowClosedError) Error() string {
	return fmt.Sprintf("attempt window is closed: %s", e.Status)
}

func (e *WindowClosedError) Is(target error) bool { return target == ErrWindowClosed }

// AttemptPaper is what the exam page receives when an attempt starts or
// resumes. Questions carry no answer key.
type AttemptPaper struct {
	SessionID       uuid.UUID                  `json:"session_id"`
	ExperimentID    int                        `json:"experiment_id"`
	Questions       []model.QuestionForStudent `json:"questions"`
	TotalMarks      int                        `json:"total_marks"`
	DurationMinutes int                        `json:"duration_minutes"`
	EndTime         string                     `json:"end_time"`
	Resumed         bool                       `json:"resumed"`
	Answered        map[int]string             `json:"answered,omitempty"`
}

// Narrow views of the repositories, so the state machine can be exercised
// against fakes.
type vivaSessionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.VivaSession, error)
	GetByStudentAndExperiment(ctx context.Context, studentID, experimentID int) (*model.VivaSession, error)
	Create(ctx context.Context, s *model.VivaSession) error
	UpsertAnswer(ctx context.Context, sessionID uuid.UUID, questionNumber int, answerText string) error
	ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error)
	RecordViolation(ctx context.Context, sessionID uuid.UUID, reason string) (int, error)
	FinalizeCompleted(ctx context.Context, sessionID uuid.UUID, obtainedMarks int) error
	FinalizeViolated(ctx context.Context, sessionID uuid.UUID, reason string) error
	WriteAnswerMarks(ctx context.Context, sessionID uuid.UUID, marks map[int]int) error
	ResetInProgress(ctx context.Context) (int64, error)
}

type vivaScheduleRepository interface {
	GetByID(ctx context.Context, id int) (*model.VivaSchedule, error)
	GetByExperiment(ctx context.Context, experimentID int) (*model.VivaSchedule, error)
	IncrementEnrolled(ctx context.Context, scheduleID int) error
}

type experimentRepository interface {
	GetExperiment(ctx context.Context, id int) (*model.Experiment, error)
}

type studentRepository interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
}

type questionGenerator interface {
	Generate(ctx context.Context, req generator.Request) []model.Question
}

// MarksQueue hands finalized marks to the roster export pipeline.
type MarksQueue interface {
	EnqueueMark(ctx context.Context, regNo string, experimentNo int, value string) error
}

// VivaSessionService drives the attempt lifecycle: start, answer, violation,
// finalize. It owns the single-terminal-transition rule; handlers only
// translate its errors.
type VivaSessionService struct {
	sessions  vivaSessionRepository
	schedules vivaScheduleRepository
	catalog   experimentRepository
	students  studentRepository
	questions store.QuestionStore
	gen       questionGenerator
	marks     MarksQueue
	loc       *time.Location
	count     int
	log       zerolog.Logger

	now func() time.Time // overridable in tests
}

// NewVivaSessionService creates a new VivaSessionService.
func NewVivaSessionService(
	sessions vivaSessionRepository,
	schedules vivaScheduleRepository,
	catalog experimentRepository,
	students studentRepository,
	questions store.QuestionStore,
	gen questionGenerator,
	marks MarksQueue,
	cfg *config.Config,
	log zerolog.Logger,
) *VivaSessionService {
	return &VivaSessionService{
		sessions:  sessions,
		schedules: schedules,
		catalog:   catalog,
		students:  students,
		questions: questions,
		gen:       gen,
		marks:     marks,
		loc:       cfg.Location,
		count:     cfg.QuestionCount,
		log:       log.With().Str("component", "viva_session_service").Logger(),
		now:       time.Now,
	}
}

// StartAttempt opens (or resumes) the student's single attempt at an
// experiment. The window must be open; a terminal session blocks retry.
func (s *VivaSessionService) StartAttempt(ctx context.Context, studentID, experimentID int) (*AttemptPaper, error) {
	exp, err := s.catalog.GetExperiment(ctx, experimentID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrExperimentNotFound
		}
		return nil, fmt.Errorf("get experiment: %w", err)
	}

	sched, err := s.schedules.GetByExperiment(ctx, experimentID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotScheduled
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	existing, err := s.sessions.GetByStudentAndExperiment(ctx, studentID, experimentID)
	if err != nil && !isNoRows(err) {
		return nil, fmt.Errorf("get session: %w", err)
	}
	// A finished attempt answers the same way whether or not the window is
	// still open: the student belongs on the results page, not behind a
	// window-closed error.
	if existing != nil && existing.Status.Terminal() {
		return nil, ErrAlreadyAttempted
	}

	if err := s.checkWindow(sched); err != nil {
		return nil, err
	}

	if existing != nil {
		return s.resume(ctx, existing, sched)
	}

	// Fresh attempt: generate the paper before the session row exists so the
	// row is born with its durable question copy.
	seed := generator.Seed(studentID, experimentID, uuid.NewString())
	questions := s.gen.Generate(ctx, generator.Request{
		Topic:     exp.Title,
		Materials: exp.MaterialsText,
		Count:     s.count,
		Seed:      seed,
	})

	session := &model.VivaSession{
		StudentID:          studentID,
		ScheduleID:         sched.ID,
		ExperimentID:       experimentID,
		Status:             model.SessionStatusInProgress,
		TotalMarks:         len(questions),
		GeneratedQuestions: questions,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		if isNoRows(err) {
			// Lost the race against a concurrent start of the same attempt.
			existing, err := s.sessions.GetByStudentAndExperiment(ctx, studentID, experimentID)
			if err != nil {
				return nil, fmt.Errorf("refetch session after conflict: %w", err)
			}
			return s.resume(ctx, existing, sched)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := s.questions.Put(ctx, s.storeKey(session), questions); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID.String()).
			Msg("Question store write failed, running on durable copy")
	}
	if err := s.schedules.IncrementEnrolled(ctx, sched.ID); err != nil {
		s.log.Warn().Err(err).Int("schedule_id", sched.ID).Msg("Enrolled counter update failed")
	}

	s.log.Info().
		Int("student_id", studentID).
		Int("experiment_id", experimentID).
		Str("session_id", session.ID.String()).
		Msg("Viva attempt started")

	return &AttemptPaper{
		SessionID:       session.ID,
		ExperimentID:    experimentID,
		Questions:       model.ForStudent(questions),
		TotalMarks:      session.TotalMarks,
		DurationMinutes: exp.DurationMinutes,
		EndTime:         sched.EndTime,
		Resumed:         false,
	}, nil
}

// resume rebuilds the paper of an existing session. Terminal sessions block.
func (s *VivaSessionService) resume(ctx context.Context, session *model.VivaSession, sched *model.VivaSchedule) (*AttemptPaper, error) {
	if session.Status.Terminal() {
		return nil, ErrAlreadyAttempted
	}

	questions, err := s.loadQuestions(ctx, session)
	if err != nil {
		return nil, err
	}

	answered := map[int]string{}
	answers, err := s.sessions.ListAnswers(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	for _, a := range answers {
		answered[a.QuestionNumber] = a.AnswerText
	}

	exp, err := s.catalog.GetExperiment(ctx, session.ExperimentID)
	if err != nil {
		return nil, fmt.Errorf("get experiment: %w", err)
	}

	return &AttemptPaper{
		SessionID:       session.ID,
		ExperimentID:    session.ExperimentID,
		Questions:       model.ForStudent(questions),
		TotalMarks:      session.TotalMarks,
		DurationMinutes: exp.DurationMinutes,
		EndTime:         sched.EndTime,
		Resumed:         true,
		Answered:        answered,
	}, nil
}

// SubmitAnswer saves one answer of an in-progress attempt. If the window has
// expired meanwhile, the attempt is finalized with whatever answers exist and
// the result is returned alongside ErrWindowExpired.
func (s *VivaSessionService) SubmitAnswer(ctx context.Context, studentID int, sessionID uuid.UUID, req model.SubmitAnswerRequest) (*model.SessionResult, error) {
	session, err := s.ownedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, ErrNotInProgress
	}

	sched, err := s.schedules.GetByID(ctx, session.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	status, evalErr := schedule.Evaluate(s.window(sched), s.now().In(s.loc))
	if evalErr != nil {
		// Malformed stored times cannot expire a running attempt; keep
		// answering open and leave a trace for the operator.
		s.log.Error().Err(evalErr).Int("schedule_id", sched.ID).
			Msg("Window evaluation failed mid-attempt")
	}
	if status == schedule.ClosedExpired {
		// Time ran out honestly: score what was answered so far.
		result, err := s.finalizeCompleted(ctx, session)
		if err != nil {
			return nil, err
		}
		return result, ErrWindowExpired
	}

	if req.QuestionNumber < 1 || req.QuestionNumber > session.TotalMarks {
		return nil, ErrQuestionOutOfRange
	}

	if err := s.sessions.UpsertAnswer(ctx, sessionID, req.QuestionNumber, req.AnswerText); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}
	return nil, nil
}

// Finalize performs the completed terminal transition and scores the attempt.
func (s *VivaSessionService) Finalize(ctx context.Context, studentID int, sessionID uuid.UUID) (*model.SessionResult, error) {
	session, err := s.ownedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, repository.ErrAlreadyFinalized
	}
	return s.finalizeCompleted(ctx, session)
}

func (s *VivaSessionService) finalizeCompleted(ctx context.Context, session *model.VivaSession) (*model.SessionResult, error) {
	questions, err := s.loadQuestions(ctx, session)
	if err != nil {
		return nil, err
	}

	answers, err := s.sessions.ListAnswers(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	answered := make(map[int]string, len(answers))
	for _, a := range answers {
		answered[a.QuestionNumber] = a.AnswerText
	}

	scored := scorer.Score(questions, answered)

	if err := s.sessions.FinalizeCompleted(ctx, session.ID, scored.ObtainedMarks); err != nil {
		return nil, err
	}

	perQuestion := make(map[int]int, len(scored.Results))
	for _, r := range scored.Results {
		perQuestion[r.QuestionID] = r.Marks
	}
	if err := s.sessions.WriteAnswerMarks(ctx, session.ID, perQuestion); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Per-answer marks write failed")
	}

	if err := s.questions.Delete(ctx, s.storeKey(session)); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Question store cleanup failed")
	}

	saved := s.exportMark(ctx, session, strconv.Itoa(scored.ObtainedMarks))

	s.log.Info().
		Str("session_id", session.ID.String()).
		Int("obtained", scored.ObtainedMarks).
		Int("total", scored.TotalMarks).
		Msg("Viva attempt completed")

	return &model.SessionResult{
		SessionID:     session.ID,
		Status:        model.SessionStatusCompleted,
		ObtainedMarks: scored.ObtainedMarks,
		TotalMarks:    scored.TotalMarks,
		RosterSaved:   saved,
	}, nil
}

// ReportViolation records an anti-cheat signal and performs the violated
// terminal transition. A violated attempt always scores zero.
func (s *VivaSessionService) ReportViolation(ctx context.Context, studentID int, sessionID uuid.UUID, reason string) (*model.SessionResult, error) {
	session, err := s.ownedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = "proctoring signal"
	}

	if _, err := s.sessions.RecordViolation(ctx, sessionID, reason); err != nil {
		return nil, err
	}
	if err := s.sessions.FinalizeViolated(ctx, sessionID, reason); err != nil {
		return nil, err
	}

	if err := s.questions.Delete(ctx, s.storeKey(session)); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Question store cleanup failed")
	}

	saved := s.exportMark(ctx, session, "0 (V)")

	s.log.Warn().
		Str("session_id", session.ID.String()).
		Int("student_id", studentID).
		Str("reason", reason).
		Msg("Viva attempt violated")

	return &model.SessionResult{
		SessionID:     session.ID,
		Status:        model.SessionStatusViolated,
		ObtainedMarks: 0,
		TotalMarks:    session.TotalMarks,
		RosterSaved:   saved,
	}, nil
}

// GetProgress summarizes an attempt for the exam page's reconnect path.
func (s *VivaSessionService) GetProgress(ctx context.Context, studentID int, sessionID uuid.UUID) (*model.SessionProgress, error) {
	session, err := s.ownedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	answers, err := s.sessions.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	return &model.SessionProgress{
		SessionID:      session.ID,
		Status:         session.Status,
		TotalQuestions: session.TotalMarks,
		AnsweredCount:  len(answers),
	}, nil
}

// ResetStranded deletes every in-progress session. Maintenance operation for
// clearing attempts stranded by a mid-window outage so students can restart.
func (s *VivaSessionService) ResetStranded(ctx context.Context) (int64, error) {
	count, err := s.sessions.ResetInProgress(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset stranded sessions: %w", err)
	}
	if count > 0 {
		s.log.Warn().Int64("count", count).Msg("Stranded in-progress sessions cleared")
	}
	return count, nil
}

// ownedSession loads a session and enforces ownership.
func (s *VivaSessionService) ownedSession(ctx context.Context, studentID int, sessionID uuid.UUID) (*model.VivaSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.StudentID != studentID {
		return nil, ErrNotOwner
	}
	return session, nil
}

// loadQuestions prefers the ephemeral store and falls back to the durable
// copy on the session row.
func (s *VivaSessionService) loadQuestions(ctx context.Context, session *model.VivaSession) ([]model.Question, error) {
	questions, err := s.questions.Get(ctx, s.storeKey(session))
	if err == nil {
		return questions, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Question store read failed")
	}
	if len(session.GeneratedQuestions) == 0 {
		return nil, fmt.Errorf("session %s has no question set", session.ID)
	}
	return session.GeneratedQuestions, nil
}

func (s *VivaSessionService) checkWindow(sched *model.VivaSchedule) error {
	status, err := schedule.Evaluate(s.window(sched), s.now().In(s.loc))
	if err != nil {
		return fmt.Errorf("evaluate window: %w", err)
	}
	if !status.IsOpen() {
		return &WindowClosedError{Status: status}
	}
	return nil
}

func (s *VivaSessionService) window(sched *model.VivaSchedule) schedule.Window {
	return schedule.Window{
		Date:      sched.ScheduledDate,
		StartTime: sched.StartTime,
		EndTime:   sched.EndTime,
	}
}

func (s *VivaSessionService) storeKey(session *model.VivaSession) store.Key {
	return store.Key{
		StudentID:    session.StudentID,
		ExperimentID: session.ExperimentID,
		SessionID:    session.ID,
	}
}

// exportMark pushes the finalized mark onto the roster export queue. The
// database already holds the result, so failure only means the spreadsheet
// lags behind.
func (s *VivaSessionService) exportMark(ctx context.Context, session *model.VivaSession, value string) bool {
	student, err := s.students.GetByID(ctx, session.StudentID)
	if err != nil {
		s.log.Warn().Err(err).Int("student_id", session.StudentID).Msg("Mark export skipped, student lookup failed")
		return false
	}
	exp, err := s.catalog.GetExperiment(ctx, session.ExperimentID)
	if err != nil {
		s.log.Warn().Err(err).Int("experiment_id", session.ExperimentID).Msg("Mark export skipped, experiment lookup failed")
		return false
	}
	if err := s.marks.EnqueueMark(ctx, student.RegNo, exp.ExperimentNo, value); err != nil {
		s.log.Warn().Err(err).Str("reg_no", student.RegNo).Msg("Mark export enqueue failed")
		return false
	}
	return true
}

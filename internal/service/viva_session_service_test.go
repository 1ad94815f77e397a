package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/config"
	"github.com/mkce-labs/vivalab-backend/internal/generator"
	"github.com/mkce-labs/vivalab-backend/internal/model"
	"github.com/mkce-labs/vivalab-backend/internal/repository"
	"github.com/mkce-labs/vivalab-backend/internal/store"
)

// ---- fakes ----

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.VivaSession
	answers  map[uuid.UUID]map[int]string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[uuid.UUID]*model.VivaSession),
		answers:  make(map[uuid.UUID]map[int]string),
	}
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*model.VivaSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) GetByStudentAndExperiment(_ context.Context, studentID, experimentID int) (*model.VivaSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.StudentID == studentID && s.ExperimentID == experimentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSessionRepo) Create(_ context.Context, s *model.VivaSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.StudentID == s.StudentID && existing.ExperimentID == s.ExperimentID {
			// Unique index conflict: DO NOTHING means nothing to scan.
			return pgx.ErrNoRows
		}
	}
	s.ID = uuid.New()
	s.StartedAt = time.Now()
	s.CreatedAt = s.StartedAt
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) UpsertAnswer(_ context.Context, sessionID uuid.UUID, questionNumber int, answerText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answers[sessionID] == nil {
		f.answers[sessionID] = make(map[int]string)
	}
	f.answers[sessionID][questionNumber] = answerText
	return nil
}

func (f *fakeSessionRepo) ListAnswers(_ context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudentAnswer
	for qn, text := range f.answers[sessionID] {
		out = append(out, model.StudentAnswer{VivaSessionID: sessionID, QuestionNumber: qn, AnswerText: text})
	}
	return out, nil
}

func (f *fakeSessionRepo) RecordViolation(_ context.Context, sessionID uuid.UUID, reason string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.Status != model.SessionStatusInProgress {
		return 0, repository.ErrAlreadyFinalized
	}
	s.ViolationDetected = true
	s.ViolationReason = reason
	s.ViolationCount++
	return s.ViolationCount, nil
}

func (f *fakeSessionRepo) FinalizeCompleted(_ context.Context, sessionID uuid.UUID, obtainedMarks int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.Status != model.SessionStatusInProgress {
		return repository.ErrAlreadyFinalized
	}
	now := time.Now()
	s.Status = model.SessionStatusCompleted
	s.ObtainedMarks = &obtainedMarks
	s.CompletedAt = &now
	return nil
}

func (f *fakeSessionRepo) FinalizeViolated(_ context.Context, sessionID uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.Status != model.SessionStatusInProgress {
		return repository.ErrAlreadyFinalized
	}
	now := time.Now()
	zero := 0
	s.Status = model.SessionStatusViolated
	s.ObtainedMarks = &zero
	s.ViolationDetected = true
	s.ViolationReason = reason
	s.CompletedAt = &now
	return nil
}

func (f *fakeSessionRepo) WriteAnswerMarks(context.Context, uuid.UUID, map[int]int) error {
	return nil
}

func (f *fakeSessionRepo) ResetInProgress(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, s := range f.sessions {
		if s.Status == model.SessionStatusInProgress {
			delete(f.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type fakeScheduleRepo struct {
	schedule *model.VivaSchedule
	enrolled int
}

func (f *fakeScheduleRepo) GetByID(_ context.Context, id int) (*model.VivaSchedule, error) {
	if f.schedule == nil || f.schedule.ID != id {
		return nil, pgx.ErrNoRows
	}
	cp := *f.schedule
	return &cp, nil
}

func (f *fakeScheduleRepo) GetByExperiment(_ context.Context, experimentID int) (*model.VivaSchedule, error) {
	if f.schedule == nil || f.schedule.ExperimentID != experimentID {
		return nil, pgx.ErrNoRows
	}
	cp := *f.schedule
	return &cp, nil
}

func (f *fakeScheduleRepo) IncrementEnrolled(context.Context, int) error {
	f.enrolled++
	return nil
}

type fakeCatalogRepo struct {
	experiment *model.Experiment
}

func (f *fakeCatalogRepo) GetExperiment(_ context.Context, id int) (*model.Experiment, error) {
	if f.experiment == nil || f.experiment.ID != id {
		return nil, pgx.ErrNoRows
	}
	cp := *f.experiment
	return &cp, nil
}

type fakeStudentRepo struct {
	student *model.Student
}

func (f *fakeStudentRepo) GetByID(_ context.Context, id int) (*model.Student, error) {
	if f.student == nil || f.student.ID != id {
		return nil, pgx.ErrNoRows
	}
	cp := *f.student
	return &cp, nil
}

type fakeGenerator struct{ count int }

func (f fakeGenerator) Generate(_ context.Context, req generator.Request) []model.Question {
	n := req.Count
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:   i + 1,
			Text: fmt.Sprintf("question %d", i+1),
			Options: map[string]string{
				"A": "right", "B": "wrong", "C": "wrong too", "D": "also wrong",
			},
			CorrectAnswer: "A",
		}
	}
	return qs
}

type markCall struct {
	regNo string
	expNo int
	value string
}

type fakeMarksQueue struct {
	mu    sync.Mutex
	calls []markCall
	err   error
}

func (f *fakeMarksQueue) EnqueueMark(_ context.Context, regNo string, expNo int, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, markCall{regNo: regNo, expNo: expNo, value: value})
	return nil
}

// ---- harness ----

type harness struct {
	svc       *VivaSessionService
	sessions  *fakeSessionRepo
	schedules *fakeScheduleRepo
	marks     *fakeMarksQueue
}

// newHarness builds a service with a window open at the fixed test clock
// (2026-03-02 10:00 UTC, window 09:00-11:00 on that date).
func newHarness(t *testing.T) *harness {
	t.Helper()

	sessions := newFakeSessionRepo()
	schedules := &fakeScheduleRepo{
		schedule: &model.VivaSchedule{
			ID:            1,
			TeacherID:     1,
			ExperimentID:  42,
			ScheduledDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			StartTime:     "09:00",
			EndTime:       "11:00",
			TotalSlots:    30,
		},
	}
	catalog := &fakeCatalogRepo{
		experiment: &model.Experiment{
			ID:              42,
			LabID:           1,
			ExperimentNo:    3,
			Title:           "Ohm's Law Verification",
			TotalMarks:      10,
			DurationMinutes: 30,
		},
	}
	students := &fakeStudentRepo{
		student: &model.Student{ID: 7, RegNo: "927623BCB041", Name: "Asha"},
	}
	marks := &fakeMarksQueue{}

	cfg := &config.Config{Location: time.UTC, QuestionCount: 5}
	svc := NewVivaSessionService(sessions, schedules, catalog, students,
		store.NewMemoryStore(), fakeGenerator{}, marks, cfg, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }

	return &harness{svc: svc, sessions: sessions, schedules: schedules, marks: marks}
}

// ---- tests ----

func TestStartAttempt_CreatesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if len(paper.Questions) != 5 {
		t.Errorf("got %d questions, want 5", len(paper.Questions))
	}
	if paper.Resumed {
		t.Error("fresh attempt reported as resumed")
	}
	if paper.EndTime != "11:00" {
		t.Errorf("end time = %q", paper.EndTime)
	}
	if h.schedules.enrolled != 1 {
		t.Errorf("enrolled counter = %d, want 1", h.schedules.enrolled)
	}

	session, err := h.sessions.GetByStudentAndExperiment(ctx, 7, 42)
	if err != nil {
		t.Fatalf("session row missing: %v", err)
	}
	if session.Status != model.SessionStatusInProgress {
		t.Errorf("status = %s", session.Status)
	}
	if len(session.GeneratedQuestions) != 5 {
		t.Errorf("durable question copy has %d questions", len(session.GeneratedQuestions))
	}
}

func TestStartAttempt_WindowClosedEarly(t *testing.T) {
	h := newHarness(t)
	h.svc.now = func() time.Time { return time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC) }

	_, err := h.svc.StartAttempt(context.Background(), 7, 42)
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("got %v, want ErrWindowClosed", err)
	}
}

func TestStartAttempt_NotScheduled(t *testing.T) {
	h := newHarness(t)
	h.schedules.schedule = nil

	_, err := h.svc.StartAttempt(context.Background(), 7, 42)
	if !errors.Is(err, ErrNotScheduled) {
		t.Fatalf("got %v, want ErrNotScheduled", err)
	}
}

func TestStartAttempt_TerminalSessionBlocksRetry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if _, err := h.svc.Finalize(ctx, 7, paper.SessionID); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	_, err = h.svc.StartAttempt(ctx, 7, 42)
	if !errors.Is(err, ErrAlreadyAttempted) {
		t.Fatalf("got %v, want ErrAlreadyAttempted", err)
	}
}

func TestStartAttempt_ResumesInProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if _, err := h.svc.SubmitAnswer(ctx, 7, first.SessionID, model.SubmitAnswerRequest{QuestionNumber: 2, AnswerText: "B"}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	second, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("restart attempt: %v", err)
	}
	if !second.Resumed {
		t.Error("second start not reported as resumed")
	}
	if second.SessionID != first.SessionID {
		t.Error("resume produced a different session")
	}
	if second.Answered[2] != "B" {
		t.Errorf("answered map = %v", second.Answered)
	}
}

// raceSessionRepo interleaves a competing start between the service's lookup
// and its insert: the first lookup misses, and by the time Create runs the
// winner's row is already committed.
type raceSessionRepo struct {
	*fakeSessionRepo
	winner  *model.VivaSession
	lookups int
}

func (r *raceSessionRepo) GetByStudentAndExperiment(ctx context.Context, studentID, experimentID int) (*model.VivaSession, error) {
	r.lookups++
	if r.lookups == 1 {
		if err := r.fakeSessionRepo.Create(ctx, r.winner); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	return r.fakeSessionRepo.GetByStudentAndExperiment(ctx, studentID, experimentID)
}

func TestStartAttempt_CreateConflictResumesWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	winner := &model.VivaSession{
		StudentID:          7,
		ScheduleID:         1,
		ExperimentID:       42,
		Status:             model.SessionStatusInProgress,
		TotalMarks:         5,
		GeneratedQuestions: fakeGenerator{}.Generate(ctx, generator.Request{Count: 5}),
	}
	h.svc.sessions = &raceSessionRepo{fakeSessionRepo: h.sessions, winner: winner}

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if paper.SessionID != winner.ID {
		t.Errorf("loser got session %s, want the winner's %s", paper.SessionID, winner.ID)
	}
	if !paper.Resumed {
		t.Error("lost race not reported as resumed")
	}
	if len(h.sessions.sessions) != 1 {
		t.Errorf("session rows = %d, want exactly 1", len(h.sessions.sessions))
	}
}

func TestStartAttempt_FinishedAttemptAfterWindowClose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if _, err := h.svc.Finalize(ctx, 7, paper.SessionID); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// Revisiting start after the window ends must say "already attempted",
	// not "window closed".
	h.svc.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }

	_, err = h.svc.StartAttempt(ctx, 7, 42)
	if !errors.Is(err, ErrAlreadyAttempted) {
		t.Fatalf("got %v, want ErrAlreadyAttempted", err)
	}
}

func TestSubmitAnswer_Overwrites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	for _, answer := range []string{"A", "C"} {
		if _, err := h.svc.SubmitAnswer(ctx, 7, paper.SessionID, model.SubmitAnswerRequest{QuestionNumber: 1, AnswerText: answer}); err != nil {
			t.Fatalf("submit %q: %v", answer, err)
		}
	}

	if got := h.sessions.answers[paper.SessionID][1]; got != "C" {
		t.Errorf("answer = %q, want the later submission to win", got)
	}
	if len(h.sessions.answers[paper.SessionID]) != 1 {
		t.Errorf("expected a single answer row, got %d", len(h.sessions.answers[paper.SessionID]))
	}
}

func TestSubmitAnswer_OwnershipEnforced(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	_, err = h.svc.SubmitAnswer(ctx, 99, paper.SessionID, model.SubmitAnswerRequest{QuestionNumber: 1, AnswerText: "A"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("got %v, want ErrNotOwner", err)
	}
}

func TestSubmitAnswer_QuestionOutOfRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	_, err = h.svc.SubmitAnswer(ctx, 7, paper.SessionID, model.SubmitAnswerRequest{QuestionNumber: 6, AnswerText: "A"})
	if !errors.Is(err, ErrQuestionOutOfRange) {
		t.Fatalf("got %v, want ErrQuestionOutOfRange", err)
	}
}

func TestSubmitAnswer_ExpiredWindowScoresAsIs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if _, err := h.svc.SubmitAnswer(ctx, 7, paper.SessionID, model.SubmitAnswerRequest{QuestionNumber: 1, AnswerText: "A"}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	// Clock jumps past the window end.
	h.svc.now = func() time.Time { return time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC) }

	result, err := h.svc.SubmitAnswer(ctx, 7, paper.SessionID, model.SubmitAnswerRequest{QuestionNumber: 2, AnswerText: "A"})
	if !errors.Is(err, ErrWindowExpired) {
		t.Fatalf("got %v, want ErrWindowExpired", err)
	}
	if result == nil {
		t.Fatal("expected a finalized result")
	}
	if result.Status != model.SessionStatusCompleted {
		t.Errorf("status = %s, want completed", result.Status)
	}
	// Only the pre-expiry answer counts.
	if result.ObtainedMarks != 1 {
		t.Errorf("obtained = %d, want 1", result.ObtainedMarks)
	}
}

func TestSubmitAnswer_MalformedScheduleTimeKeepsAttemptOpen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	// A corrupted stored time must not expire or block a running attempt.
	h.schedules.schedule.EndTime = "junk"

	if _, err := h.svc.SubmitAnswer(ctx, 7, paper.SessionID, model.SubmitAnswerRequest{QuestionNumber: 1, AnswerText: "A"}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if got := h.sessions.answers[paper.SessionID][1]; got != "A" {
		t.Errorf("answer = %q, want it saved", got)
	}
}

func TestFinalize_ScoresAndExportsMark(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	// Three correct, one wrong, one unanswered.
	answers := map[int]string{1: "A", 2: "A", 3: "A", 4: "D"}
	for qn, answer := range answers {
		if _, err := h.svc.SubmitAnswer(ctx, 7, paper.SessionID, model.SubmitAnswerRequest{QuestionNumber: qn, AnswerText: answer}); err != nil {
			t.Fatalf("submit answer %d: %v", qn, err)
		}
	}

	result, err := h.svc.Finalize(ctx, 7, paper.SessionID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.ObtainedMarks != 3 || result.TotalMarks != 5 {
		t.Errorf("score = %d/%d, want 3/5", result.ObtainedMarks, result.TotalMarks)
	}
	if !result.RosterSaved {
		t.Error("mark not enqueued for roster export")
	}

	if len(h.marks.calls) != 1 {
		t.Fatalf("marks queue calls = %d, want 1", len(h.marks.calls))
	}
	call := h.marks.calls[0]
	if call.regNo != "927623BCB041" || call.expNo != 3 || call.value != "3" {
		t.Errorf("enqueued %+v", call)
	}
}

func TestFinalize_SecondCallRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if _, err := h.svc.Finalize(ctx, 7, paper.SessionID); err != nil {
		t.Fatalf("first finalize: %v", err)
	}

	_, err = h.svc.Finalize(ctx, 7, paper.SessionID)
	if !errors.Is(err, repository.ErrAlreadyFinalized) {
		t.Fatalf("got %v, want ErrAlreadyFinalized", err)
	}
}

func TestReportViolation_ZeroesMarks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	// Answer everything correctly; a violation must still zero the score.
	for qn := 1; qn <= 5; qn++ {
		if _, err := h.svc.SubmitAnswer(ctx, 7, paper.SessionID, model.SubmitAnswerRequest{QuestionNumber: qn, AnswerText: "A"}); err != nil {
			t.Fatalf("submit answer %d: %v", qn, err)
		}
	}

	result, err := h.svc.ReportViolation(ctx, 7, paper.SessionID, "tab switch")
	if err != nil {
		t.Fatalf("report violation: %v", err)
	}
	if result.Status != model.SessionStatusViolated {
		t.Errorf("status = %s", result.Status)
	}
	if result.ObtainedMarks != 0 {
		t.Errorf("obtained = %d, want 0", result.ObtainedMarks)
	}

	if len(h.marks.calls) != 1 || h.marks.calls[0].value != "0 (V)" {
		t.Errorf("roster export calls = %+v, want single 0 (V)", h.marks.calls)
	}

	// Terminal state is final: no completed transition can follow.
	if _, err := h.svc.Finalize(ctx, 7, paper.SessionID); !errors.Is(err, repository.ErrAlreadyFinalized) {
		t.Fatalf("finalize after violation: %v, want ErrAlreadyFinalized", err)
	}
}

func TestFinalize_ExportFailureStillCompletes(t *testing.T) {
	h := newHarness(t)
	h.marks.err = errors.New("queue down")
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	result, err := h.svc.Finalize(ctx, 7, paper.SessionID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.Status != model.SessionStatusCompleted {
		t.Errorf("status = %s", result.Status)
	}
	if result.RosterSaved {
		t.Error("RosterSaved = true despite enqueue failure")
	}
}

func TestGetProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paper, err := h.svc.StartAttempt(ctx, 7, 42)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	for qn := 1; qn <= 2; qn++ {
		if _, err := h.svc.SubmitAnswer(ctx, 7, paper.SessionID, model.SubmitAnswerRequest{QuestionNumber: qn, AnswerText: "A"}); err != nil {
			t.Fatalf("submit answer: %v", err)
		}
	}

	progress, err := h.svc.GetProgress(ctx, 7, paper.SessionID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if progress.AnsweredCount != 2 || progress.TotalQuestions != 5 {
		t.Errorf("progress = %+v", progress)
	}
}

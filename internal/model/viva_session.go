package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates viva session states. There is no persisted
// "scheduled" state: a session row only exists once the attempt has started.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusViolated   SessionStatus = "violated"
)

// Terminal reports whether no further transition may leave this status.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusViolated
}

// VivaSession represents one student's attempt at one experiment under one
// schedule. At most one session exists per (student, experiment); a terminal
// session blocks retry.
//
// ObtainedMarks is written exactly once, at the single transition into a
// terminal state. A violated session always carries zero marks.
type VivaSession struct {
	ID            uuid.UUID     `json:"id"`
	StudentID     int           `json:"student_id"`
	ScheduleID    int           `json:"schedule_id"`
	ExperimentID  int           `json:"experiment_id"`
	Status        SessionStatus `json:"status"`
	TotalMarks    int           `json:"total_marks"`
	ObtainedMarks *int          `json:"obtained_marks,omitempty"`

	// GeneratedQuestions is the durable copy of the question set shown to
	// the student (jsonb in PostgreSQL). The ephemeral copy lives in the
	// session question store.
	GeneratedQuestions []Question `json:"generated_questions,omitempty"`

	ViolationDetected bool   `json:"violation_detected"`
	ViolationReason   string `json:"violation_reason,omitempty"`
	ViolationCount    int    `json:"violation_count"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// StudentAnswer is one student's response to one question number within a
// session. At most one row exists per (session, question number); later
// submissions overwrite the text. MarksObtained is populated exactly once,
// at finalization.
type StudentAnswer struct {
	ID              int       `json:"id"`
	VivaSessionID   uuid.UUID `json:"viva_session_id"`
	QuestionNumber  int       `json:"question_number"`
	AnswerText      string    `json:"answer_text"`
	MarksObtained   *int      `json:"marks_obtained,omitempty"`
	TeacherFeedback string    `json:"teacher_feedback,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SubmitAnswerRequest is the payload for saving one answer.
type SubmitAnswerRequest struct {
	QuestionNumber int    `json:"question_number" binding:"required,min=1,max=50"`
	AnswerText     string `json:"answer_text" binding:"required,max=2000"`
}

// ViolationRequest is the payload reported by the exam page when an
// anti-cheat signal (tab switch, window blur) fires.
type ViolationRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=255"`
}

// SessionProgress summarizes an in-progress attempt.
type SessionProgress struct {
	SessionID      uuid.UUID     `json:"session_id"`
	Status         SessionStatus `json:"status"`
	TotalQuestions int           `json:"total_questions"`
	AnsweredCount  int           `json:"answered_count"`
}

// SessionResult is returned after a terminal transition.
type SessionResult struct {
	SessionID     uuid.UUID     `json:"session_id"`
	Status        SessionStatus `json:"status"`
	ObtainedMarks int           `json:"obtained_marks"`
	TotalMarks    int           `json:"total_marks"`
	RosterSaved   bool          `json:"roster_saved"`
}

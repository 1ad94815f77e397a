package model

import "time"

// ScheduleStatus is the teacher-facing label of a schedule.
type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusCompleted ScheduleStatus = "completed"
)

// VivaSchedule is one teacher-defined time window for one experiment.
// StartTime/EndTime are wall-clock "HH:MM" strings on ScheduledDate, all in
// the institution's civil time. At most one schedule exists per experiment;
// re-scheduling requires deleting the existing one first.
//
// TotalSlots is advisory capacity: EnrolledCount is incremented on every
// session start but never enforced against it.
type VivaSchedule struct {
	ID            int            `json:"id"`
	TeacherID     int            `json:"teacher_id"`
	ExperimentID  int            `json:"experiment_id"`
	ScheduledDate time.Time      `json:"scheduled_date"`
	StartTime     string         `json:"start_time"`
	EndTime       string         `json:"end_time"`
	TotalSlots    int            `json:"total_slots"`
	EnrolledCount int            `json:"enrolled_count"`
	Status        ScheduleStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CreateScheduleRequest is the payload for scheduling a viva.
type CreateScheduleRequest struct {
	ExperimentID  int    `json:"experiment_id" binding:"required,min=1"`
	ScheduledDate string `json:"scheduled_date" binding:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time" binding:"required,datetime=15:04"`
	EndTime       string `json:"end_time" binding:"required,datetime=15:04"`
	TotalSlots    int    `json:"total_slots" binding:"omitempty,min=1,max=500"`
}

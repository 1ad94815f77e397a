package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// ScheduleRepository handles viva schedule data access.
type ScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// Create inserts a schedule. The unique index on experiment_id enforces one
// schedule per experiment; callers map the conflict error to a domain error.
func (r *ScheduleRepository) Create(ctx context.Context, s *model.VivaSchedule) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO viva_schedules (teacher_id, experiment_id, scheduled_date, start_time, end_time, total_slots, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		s.TeacherID, s.ExperimentID, s.ScheduledDate, s.StartTime, s.EndTime, s.TotalSlots, model.ScheduleStatusScheduled,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetByID retrieves one schedule by primary key.
func (r *ScheduleRepository) GetByID(ctx context.Context, id int) (*model.VivaSchedule, error) {
	s := &model.VivaSchedule{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, teacher_id, experiment_id, scheduled_date, start_time, end_time, total_slots, enrolled_count, status, created_at
		 FROM viva_schedules
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.TeacherID, &s.ExperimentID, &s.ScheduledDate, &s.StartTime, &s.EndTime, &s.TotalSlots, &s.EnrolledCount, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByExperiment retrieves the schedule for an experiment, if any.
func (r *ScheduleRepository) GetByExperiment(ctx context.Context, experimentID int) (*model.VivaSchedule, error) {
	s := &model.VivaSchedule{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, teacher_id, experiment_id, scheduled_date, start_time, end_time, total_slots, enrolled_count, status, created_at
		 FROM viva_schedules
		 WHERE experiment_id = $1`, experimentID,
	).Scan(&s.ID, &s.TeacherID, &s.ExperimentID, &s.ScheduledDate, &s.StartTime, &s.EndTime, &s.TotalSlots, &s.EnrolledCount, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List retrieves all schedules, newest scheduled date first.
func (r *ScheduleRepository) List(ctx context.Context) ([]model.VivaSchedule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, teacher_id, experiment_id, scheduled_date, start_time, end_time, total_slots, enrolled_count, status, created_at
		 FROM viva_schedules
		 ORDER BY scheduled_date DESC, start_time DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []model.VivaSchedule
	for rows.Next() {
		var s model.VivaSchedule
		if err := rows.Scan(&s.ID, &s.TeacherID, &s.ExperimentID, &s.ScheduledDate, &s.StartTime, &s.EndTime, &s.TotalSlots, &s.EnrolledCount, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// ListByDate retrieves schedules for one calendar date.
func (r *ScheduleRepository) ListByDate(ctx context.Context, date time.Time) ([]model.VivaSchedule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, teacher_id, experiment_id, scheduled_date, start_time, end_time, total_slots, enrolled_count, status, created_at
		 FROM viva_schedules
		 WHERE scheduled_date = $1
		 ORDER BY start_time`, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []model.VivaSchedule
	for rows.Next() {
		var s model.VivaSchedule
		if err := rows.Scan(&s.ID, &s.TeacherID, &s.ExperimentID, &s.ScheduledDate, &s.StartTime, &s.EndTime, &s.TotalSlots, &s.EnrolledCount, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// IncrementEnrolled bumps the enrolled counter. Capacity is advisory, so
// this never fails on a full schedule.
func (r *ScheduleRepository) IncrementEnrolled(ctx context.Context, scheduleID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE viva_schedules SET enrolled_count = enrolled_count + 1 WHERE id = $1`,
		scheduleID)
	return err
}

// UpdateStatus changes the teacher-facing schedule label.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, scheduleID int, status model.ScheduleStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE viva_schedules SET status = $1 WHERE id = $2`,
		status, scheduleID)
	return err
}

// Delete removes a schedule. Started sessions keep their schedule_id via ON
// DELETE RESTRICT, so deletion only succeeds before anyone has attempted.
func (r *ScheduleRepository) Delete(ctx context.Context, scheduleID int) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM viva_schedules WHERE id = $1`, scheduleID)
	return err
}

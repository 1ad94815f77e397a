package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/config"
	"github.com/mkce-labs/vivalab-backend/internal/model"
	"github.com/mkce-labs/vivalab-backend/internal/repository"
	"github.com/mkce-labs/vivalab-backend/internal/schedule"
)

// Schedule errors.
var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrScheduleExists   = errors.New("experiment already has a schedule")
	ErrScheduleInUse    = errors.New("schedule has started sessions and cannot be deleted")
	ErrNotScheduleOwner = errors.New("schedule belongs to another teacher")
	ErrInvalidWindow    = errors.New("end time must be after start time")
	ErrScheduleInPast   = errors.New("scheduled date is in the past")
)

// ScheduleView is a schedule with its live window status for dashboards.
type ScheduleView struct {
	model.VivaSchedule
	WindowStatus schedule.Status `json:"window_status"`
}

// ScheduleService handles viva schedule business logic.
type ScheduleService struct {
	schedules *repository.ScheduleRepository
	catalog   *repository.CatalogRepository
	loc       *time.Location
	log       zerolog.Logger

	now func() time.Time
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(schedules *repository.ScheduleRepository, catalog *repository.CatalogRepository, cfg *config.Config, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		schedules: schedules,
		catalog:   catalog,
		loc:       cfg.Location,
		log:       log.With().Str("component", "schedule_service").Logger(),
		now:       time.Now,
	}
}

// Create schedules a viva window for an experiment. One schedule per
// experiment; re-scheduling means deleting the old one first.
func (s *ScheduleService) Create(ctx context.Context, teacherID int, req model.CreateScheduleRequest) (*model.VivaSchedule, error) {
	date, err := time.ParseInLocation("2006-01-02", req.ScheduledDate, s.loc)
	if err != nil {
		return nil, fmt.Errorf("parse scheduled date: %w", err)
	}

	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parse end time: %w", err)
	}
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if date.Before(today) {
		return nil, ErrScheduleInPast
	}

	if _, err := s.catalog.GetExperiment(ctx, req.ExperimentID); err != nil {
		if isNoRows(err) {
			return nil, ErrExperimentNotFound
		}
		return nil, fmt.Errorf("get experiment: %w", err)
	}

	totalSlots := req.TotalSlots
	if totalSlots == 0 {
		totalSlots = 30
	}

	sched := &model.VivaSchedule{
		TeacherID:     teacherID,
		ExperimentID:  req.ExperimentID,
		ScheduledDate: date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		TotalSlots:    totalSlots,
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrScheduleExists
		}
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	sched.Status = model.ScheduleStatusScheduled

	s.log.Info().
		Int("teacher_id", teacherID).
		Int("experiment_id", req.ExperimentID).
		Str("date", req.ScheduledDate).
		Str("window", req.StartTime+"-"+req.EndTime).
		Msg("Viva scheduled")

	return sched, nil
}

// List returns all schedules with their live window status.
func (s *ScheduleService) List(ctx context.Context) ([]ScheduleView, error) {
	schedules, err := s.schedules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return s.withStatus(schedules), nil
}

// ListToday returns schedules for today's date in institution time.
func (s *ScheduleService) ListToday(ctx context.Context) ([]ScheduleView, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	schedules, err := s.schedules.ListByDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list schedules by date: %w", err)
	}
	return s.withStatus(schedules), nil
}

// GetForExperiment returns the experiment's schedule with window status.
func (s *ScheduleService) GetForExperiment(ctx context.Context, experimentID int) (*ScheduleView, error) {
	sched, err := s.schedules.GetByExperiment(ctx, experimentID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	views := s.withStatus([]model.VivaSchedule{*sched})
	return &views[0], nil
}

// Delete removes a teacher's own schedule. Fails once sessions exist.
func (s *ScheduleService) Delete(ctx context.Context, teacherID, scheduleID int) error {
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		if isNoRows(err) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("get schedule: %w", err)
	}
	if sched.TeacherID != teacherID {
		return ErrNotScheduleOwner
	}

	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		if isForeignKeyViolation(err) {
			return ErrScheduleInUse
		}
		return fmt.Errorf("delete schedule: %w", err)
	}

	s.log.Info().Int("schedule_id", scheduleID).Int("teacher_id", teacherID).Msg("Schedule deleted")
	return nil
}

func (s *ScheduleService) withStatus(schedules []model.VivaSchedule) []ScheduleView {
	now := s.now().In(s.loc)
	views := make([]ScheduleView, 0, len(schedules))
	for _, sched := range schedules {
		status, err := schedule.Evaluate(schedule.Window{
			Date:      sched.ScheduledDate,
			StartTime: sched.StartTime,
			EndTime:   sched.EndTime,
		}, now)
		if err != nil {
			status = schedule.ClosedWrongDay
		}
		views = append(views, ScheduleView{VivaSchedule: sched, WindowStatus: status})
	}
	return views
}

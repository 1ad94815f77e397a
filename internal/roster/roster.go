// Package roster integrates with the institution's Google Sheets roster. The
// student sheet is the source of truth for who may log in and where viva
// marks land; the teacher sheet carries the lab and experiment catalog used
// for seeding. All writes are best-effort: the database remains
// authoritative for session results.
package roster

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by the no-op store and by callers that want to
// treat a missing roster configuration uniformly.
var ErrUnavailable = errors.New("roster backend not configured")

// ErrStudentNotFound is returned when a registration number has no row in
// the student sheet.
var ErrStudentNotFound = errors.New("student not found in roster")

// Student is one row of the student sheet. Marks maps experiment number
// (1-10) to the recorded viva mark; absent experiments are omitted.
type Student struct {
	RegNo string         `json:"reg_no"`
	Name  string         `json:"name"`
	Marks map[int]string `json:"marks"`
}

// Experiment is one row of the teacher sheet's Experiments tab.
type Experiment struct {
	ExperimentNo int    `json:"experiment_no"`
	Name         string `json:"name"`
	LabName      string `json:"lab_name"`
	Description  string `json:"description"`
	MaxMarks     int    `json:"max_marks"`
}

// Lab is one row of the teacher sheet's Labs tab.
type Lab struct {
	LabName          string `json:"lab_name"`
	Subject          string `json:"subject"`
	Year             string `json:"year"`
	TotalExperiments int    `json:"total_experiments"`
}

// Store is the roster backend. Implementations must be safe for concurrent
// use by handlers and the export worker.
type Store interface {
	// ValidateStudent looks up a registration number, case-insensitively.
	ValidateStudent(ctx context.Context, regNo string) (*Student, error)

	// WriteMark records a single experiment mark for a student. A violated
	// attempt is written as "0 (V)".
	WriteMark(ctx context.Context, regNo string, experimentNo int, value string) error

	// AllStudentsWithMarks reads the full student sheet.
	AllStudentsWithMarks(ctx context.Context) ([]Student, error)

	// ListExperiments and ListLabs read the teacher sheet's catalog tabs.
	ListExperiments(ctx context.Context) ([]Experiment, error)
	ListLabs(ctx context.Context) ([]Lab, error)
}

// Unavailable satisfies Store when no roster is configured. Reads fail with
// ErrUnavailable; the server runs on database data alone.
type Unavailable struct{}

func (Unavailable) ValidateStudent(context.Context, string) (*Student, error) {
	return nil, ErrUnavailable
}

func (Unavailable) WriteMark(context.Context, string, int, string) error {
	return ErrUnavailable
}

func (Unavailable) AllStudentsWithMarks(context.Context) ([]Student, error) {
	return nil, ErrUnavailable
}

func (Unavailable) ListExperiments(context.Context) ([]Experiment, error) {
	return nil, ErrUnavailable
}

func (Unavailable) ListLabs(context.Context) ([]Lab, error) {
	return nil, ErrUnavailable
}

var _ Store = Unavailable{}

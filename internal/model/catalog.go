package model

import "time"

// Subject is a course; only lab subjects carry labs with experiments.
type Subject struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsLab     bool      `json:"is_lab"`
	Year      string    `json:"year,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Lab groups the experiments of one lab subject.
type Lab struct {
	ID               int       `json:"id"`
	SubjectID        int       `json:"subject_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	TotalExperiments int       `json:"total_experiments"`
	MaterialsText    string    `json:"materials_text,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Experiment is one lab exercise; the unit a viva is scheduled against.
// MaterialsText is free-text context fed to question generation.
type Experiment struct {
	ID              int       `json:"id"`
	LabID           int       `json:"lab_id"`
	ExperimentNo    int       `json:"experiment_no"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	MaterialsText   string    `json:"materials_text,omitempty"`
	TotalMarks      int       `json:"total_marks"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// UpsertExperimentRequest is the payload for creating/updating an experiment.
type UpsertExperimentRequest struct {
	ExperimentNo    int    `json:"experiment_no" binding:"required,min=1,max=10"`
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=5000"`
	MaterialsText   string `json:"materials_text" binding:"omitempty,max=20000"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=120"`
}

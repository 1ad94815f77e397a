package model

import "time"

// Student represents a registered student. The registration number is the
// join key against the roster spreadsheet (e.g. 927623BCB041).
type Student struct {
	ID           int       `json:"id"`
	RegNo        string    `json:"reg_no"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Year         string    `json:"year,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudentRegisterRequest is the payload for first-time account creation.
// The registration number must exist in the roster spreadsheet.
type StudentRegisterRequest struct {
	RegNo    string `json:"reg_no" binding:"required,min=4,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Year     string `json:"year" binding:"omitempty,max=20"`
}

// StudentLoginRequest is the payload for a student login.
type StudentLoginRequest struct {
	RegNo    string `json:"reg_no" binding:"required,min=4,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

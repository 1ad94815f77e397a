// Package schedule decides whether a viva time window is open.
//
// Windows are stored naive: a calendar date plus "HH:MM" wall-clock bounds in
// the institution's civil time. Callers must pass "now" already converted to
// that location; comparing a UTC now against naive fields silently shifts
// every window by the UTC offset.
package schedule

import (
	"fmt"
	"time"
)

// Status is the outcome of a window evaluation.
type Status string

const (
	Open           Status = "open"
	ClosedEarly    Status = "closed_early"
	ClosedExpired  Status = "closed_expired"
	ClosedWrongDay Status = "closed_wrong_day"
)

// IsOpen reports whether the status allows starting or continuing an attempt.
func (s Status) IsOpen() bool { return s == Open }

// Window is one teacher-defined attempt window.
type Window struct {
	Date      time.Time // calendar date; time-of-day ignored
	StartTime string    // "HH:MM"
	EndTime   string    // "HH:MM"
}

// Evaluate reports whether the window is open at the given civil time.
// The window is inclusive at both ends: an attempt at exactly StartTime or
// exactly EndTime is allowed. A window on any day other than now's date is
// closed regardless of time-of-day.
func Evaluate(w Window, now time.Time) (Status, error) {
	start, err := minutesOfDay(w.StartTime)
	if err != nil {
		return ClosedWrongDay, fmt.Errorf("parse start time: %w", err)
	}
	end, err := minutesOfDay(w.EndTime)
	if err != nil {
		return ClosedWrongDay, fmt.Errorf("parse end time: %w", err)
	}

	wy, wm, wd := w.Date.Date()
	ny, nm, nd := now.Date()
	if wy != ny || wm != nm || wd != nd {
		if w.Date.Before(time.Date(ny, nm, nd, 0, 0, 0, 0, now.Location())) {
			return ClosedExpired, nil
		}
		return ClosedWrongDay, nil
	}

	current := now.Hour()*60 + now.Minute()
	switch {
	case current < start:
		return ClosedEarly, nil
	case current > end:
		return ClosedExpired, nil
	default:
		return Open, nil
	}
}

// minutesOfDay parses "HH:MM" into minutes since midnight.
func minutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

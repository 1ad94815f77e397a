package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestEvaluate_WindowBounds(t *testing.T) {
	w := Window{Date: date(2026, time.March, 10), StartTime: "09:00", EndTime: "10:00"}

	cases := []struct {
		name string
		now  time.Time
		want Status
	}{
		{"one minute early", at(2026, time.March, 10, 8, 59), ClosedEarly},
		{"exactly at start", at(2026, time.March, 10, 9, 0), Open},
		{"mid window", at(2026, time.March, 10, 9, 30), Open},
		{"one minute before end", at(2026, time.March, 10, 9, 59), Open},
		{"exactly at end", at(2026, time.March, 10, 10, 0), Open},
		{"after end", at(2026, time.March, 10, 10, 1), ClosedExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(w, tc.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Evaluate at %s = %s, want %s", tc.now.Format("15:04"), got, tc.want)
			}
		})
	}
}

func TestEvaluate_WrongDay(t *testing.T) {
	w := Window{Date: date(2026, time.March, 10), StartTime: "00:00", EndTime: "23:59"}

	if got, _ := Evaluate(w, at(2026, time.March, 11, 12, 0)); got != ClosedExpired {
		t.Errorf("past-day window = %s, want %s", got, ClosedExpired)
	}
	if got, _ := Evaluate(w, at(2026, time.March, 9, 12, 0)); got != ClosedWrongDay {
		t.Errorf("future-day window = %s, want %s", got, ClosedWrongDay)
	}
}

func TestEvaluate_BadTimeFormat(t *testing.T) {
	w := Window{Date: date(2026, time.March, 10), StartTime: "9am", EndTime: "10:00"}
	if _, err := Evaluate(w, at(2026, time.March, 10, 9, 30)); err == nil {
		t.Fatal("expected error for malformed start time")
	}
}

func TestEvaluate_UsesCallerLocation(t *testing.T) {
	// Date stored naive; now arrives in a non-UTC location. Only the civil
	// components may matter.
	loc := time.FixedZone("IST", 5*3600+1800)
	w := Window{Date: date(2026, time.March, 10), StartTime: "09:00", EndTime: "10:00"}
	now := time.Date(2026, time.March, 10, 9, 30, 0, 0, loc)

	got, err := Evaluate(w, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Open {
		t.Errorf("Evaluate in fixed zone = %s, want %s", got, Open)
	}
}

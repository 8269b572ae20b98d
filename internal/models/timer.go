package models

import (
	"time"
)

// TimerState defines the lifecycle state of a timer.
type TimerState string

const (
	TimerStateUndefined TimerState = "undefined"
	TimerStateInactive  TimerState = "inactive"
	TimerStateActive    TimerState = "active"
	TimerStatePaused    TimerState = "paused"
)

// Timer represents a named countdown timer. EndDate is the absolute deadline
// at which the countdown reaches zero; PausedDate anchors the last pause (or
// creation) instant for deadline recomputation on resume. Both are nil while
// the timer is undefined.
type Timer struct {
	Event      string     `json:"event"`
	State      TimerState `json:"state"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	PausedDate *time.Time `json:"paused_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Duration holds the client-facing countdown length, split into calendar
// fields the way clients submit them.
type Duration struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Std converts the field representation into a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d.Days)*24*time.Hour +
		time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds)*time.Second
}

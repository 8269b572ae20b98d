package timer

import "errors"

// Engine error taxonomy. Every failed operation maps to exactly one of these;
// the gateway translates them into wire reason strings.
var (
	// ErrTimerNotFound is returned when no record exists for an event name
	// where one was required.
	ErrTimerNotFound = errors.New("timer not found")

	// ErrInvalidDuration is returned when a set request carries duration
	// fields outside their declared bounds.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrStoreFailure wraps persistence errors surfaced verbatim to the
	// caller. Never retried.
	ErrStoreFailure = errors.New("store failure")

	// Transition conflicts: the requested operation is illegal from the
	// timer's current state.
	ErrSetConflict   = errors.New("set conflict")
	ErrStartConflict = errors.New("start conflict")
	ErrPauseConflict = errors.New("pause conflict")
	ErrStopConflict  = errors.New("stop conflict")
)

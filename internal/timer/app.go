package timer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/vlasebian/timerbe/internal/models"
)

// TimerRepository defines what the app layer needs from the repository.
// Implementations must be read-your-writes consistent per event name and
// return ErrTimerNotFound for absent records.
type TimerRepository interface {
	GetTimer(ctx context.Context, event string) (*models.Timer, error)
	UpsertTimer(ctx context.Context, req UpsertTimerRequest) (*models.Timer, error)
	UpdateTimerFields(ctx context.Context, event string, req UpdateTimerFieldsRequest) (*models.Timer, error)
	ResetTimer(ctx context.Context, event string) (*models.Timer, error)
}

// App handles timer business logic: it validates each operation against the
// state machine, computes new timestamps, and proposes exactly one write per
// successful mutation. All timer state lives in the repository.
type App struct {
	repo  TimerRepository
	clock clockwork.Clock
	locks *keyedMutex
}

// NewApp creates a new timer App.
func NewApp(repo TimerRepository, clock clockwork.Clock) *App {
	return &App{
		repo:  repo,
		clock: clock,
		locks: newKeyedMutex(),
	}
}

// GetTimer retrieves the timer for an event. Performs no write.
func (a *App) GetTimer(ctx context.Context, event string) (*models.Timer, error) {
	return a.findTimer(ctx, event)
}

// SetTimer creates or fully replaces the timer for an event with a fresh
// countdown. Legal only while no timer exists or the existing one is
// undefined or inactive.
func (a *App) SetTimer(ctx context.Context, event string, dur models.Duration) (*models.Timer, error) {
	if err := validateDuration(dur); err != nil {
		return nil, err
	}

	unlock := a.locks.Lock(event)
	defer unlock()

	current, err := a.findTimer(ctx, event)
	if err != nil && !errors.Is(err, ErrTimerNotFound) {
		return nil, err
	}
	if current != nil && (current.State == models.TimerStateActive || current.State == models.TimerStatePaused) {
		return nil, fmt.Errorf("%w: timer is %s", ErrSetConflict, current.State)
	}

	now := a.clock.Now().UTC()
	end := now.Add(dur.Std())

	updated, err := a.repo.UpsertTimer(ctx, UpsertTimerRequest{
		Event:      event,
		State:      models.TimerStateInactive,
		EndDate:    end,
		PausedDate: now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	log.Debug().Str("event", event).Time("end_date", end).Msg("timer set")
	return updated, nil
}

// StartTimer activates an inactive or paused timer. The deadline shifts
// forward by exactly the wall-clock time spent since the timer was last
// paused (or created), so the remaining countdown is preserved across any
// number of pause/resume cycles.
func (a *App) StartTimer(ctx context.Context, event string) (*models.Timer, error) {
	unlock := a.locks.Lock(event)
	defer unlock()

	current, err := a.findTimer(ctx, event)
	if err != nil {
		return nil, err
	}
	if current.State != models.TimerStateInactive && current.State != models.TimerStatePaused {
		return nil, fmt.Errorf("%w: timer is %s", ErrStartConflict, current.State)
	}
	if current.EndDate == nil || current.PausedDate == nil {
		// inactive and paused timers always carry both dates
		return nil, fmt.Errorf("%w: timer has no deadline", ErrStartConflict)
	}

	now := a.clock.Now().UTC()
	end := current.EndDate.Add(now.Sub(*current.PausedDate))
	state := models.TimerStateActive

	updated, err := a.repo.UpdateTimerFields(ctx, event, UpdateTimerFieldsRequest{
		State:   &state,
		EndDate: &end,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	log.Debug().Str("event", event).Time("end_date", end).Msg("timer started")
	return updated, nil
}

// PauseTimer pauses an active timer. The deadline is left untouched; the
// pause instant is recorded so StartTimer can compensate later.
func (a *App) PauseTimer(ctx context.Context, event string) (*models.Timer, error) {
	unlock := a.locks.Lock(event)
	defer unlock()

	current, err := a.findTimer(ctx, event)
	if err != nil {
		return nil, err
	}
	if current.State != models.TimerStateActive {
		return nil, fmt.Errorf("%w: timer is %s", ErrPauseConflict, current.State)
	}

	now := a.clock.Now().UTC()
	state := models.TimerStatePaused

	updated, err := a.repo.UpdateTimerFields(ctx, event, UpdateTimerFieldsRequest{
		State:      &state,
		PausedDate: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	log.Debug().Str("event", event).Msg("timer paused")
	return updated, nil
}

// StopTimer resets a timer back to undefined and clears both dates. The
// record is never deleted, so the event can be set again afterwards.
func (a *App) StopTimer(ctx context.Context, event string) (*models.Timer, error) {
	unlock := a.locks.Lock(event)
	defer unlock()

	current, err := a.findTimer(ctx, event)
	if err != nil {
		return nil, err
	}
	if current.State == models.TimerStateUndefined {
		return nil, fmt.Errorf("%w: timer is already %s", ErrStopConflict, current.State)
	}

	updated, err := a.repo.ResetTimer(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	log.Debug().Str("event", event).Msg("timer stopped")
	return updated, nil
}

// findTimer looks up a record, keeping NotFound distinct from other store
// errors. Existence is always checked before any state inspection.
func (a *App) findTimer(ctx context.Context, event string) (*models.Timer, error) {
	t, err := a.repo.GetTimer(ctx, event)
	if err != nil {
		if errors.Is(err, ErrTimerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return t, nil
}

// validateDuration bound-checks each duration field independently before any
// persistence access.
func validateDuration(dur models.Duration) error {
	switch {
	case dur.Days < 0:
		return fmt.Errorf("%w: days must not be negative", ErrInvalidDuration)
	case dur.Hours < 0 || dur.Hours > 24:
		return fmt.Errorf("%w: hours must be between 0 and 24", ErrInvalidDuration)
	case dur.Minutes < 0 || dur.Minutes > 60:
		return fmt.Errorf("%w: minutes must be between 0 and 60", ErrInvalidDuration)
	case dur.Seconds < 0 || dur.Seconds > 60:
		return fmt.Errorf("%w: seconds must be between 0 and 60", ErrInvalidDuration)
	}
	return nil
}

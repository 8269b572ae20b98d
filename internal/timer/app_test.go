package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlasebian/timerbe/internal/models"
)

// fakeRepo is an in-memory TimerRepository for engine tests.
type fakeRepo struct {
	mu       sync.Mutex
	timers   map[string]models.Timer
	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{timers: make(map[string]models.Timer)}
}

func (f *fakeRepo) GetTimer(_ context.Context, event string) (*models.Timer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	t, ok := f.timers[event]
	if !ok {
		return nil, ErrTimerNotFound
	}
	return &t, nil
}

func (f *fakeRepo) UpsertTimer(_ context.Context, req UpsertTimerRequest) (*models.Timer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	end := req.EndDate
	paused := req.PausedDate
	t := models.Timer{
		Event:      req.Event,
		State:      req.State,
		EndDate:    &end,
		PausedDate: &paused,
	}
	f.timers[req.Event] = t
	return &t, nil
}

func (f *fakeRepo) UpdateTimerFields(_ context.Context, event string, req UpdateTimerFieldsRequest) (*models.Timer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	t, ok := f.timers[event]
	if !ok {
		return nil, ErrTimerNotFound
	}
	if req.State != nil {
		t.State = *req.State
	}
	if req.EndDate != nil {
		end := *req.EndDate
		t.EndDate = &end
	}
	if req.PausedDate != nil {
		paused := *req.PausedDate
		t.PausedDate = &paused
	}
	f.timers[event] = t
	return &t, nil
}

func (f *fakeRepo) ResetTimer(_ context.Context, event string) (*models.Timer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	t, ok := f.timers[event]
	if !ok {
		return nil, ErrTimerNotFound
	}
	t.State = models.TimerStateUndefined
	t.EndDate = nil
	t.PausedDate = nil
	f.timers[event] = t
	return &t, nil
}

func (f *fakeRepo) snapshot(event string) (models.Timer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.timers[event]
	return t, ok
}

func newTestApp() (*App, *fakeRepo, *clockwork.FakeClock) {
	repo := newFakeRepo()
	clock := clockwork.NewFakeClock()
	return NewApp(repo, clock), repo, clock
}

func TestUnknownEventYieldsNotFound(t *testing.T) {
	app, _, _ := newTestApp()
	ctx := context.Background()

	_, err := app.GetTimer(ctx, "missing")
	assert.ErrorIs(t, err, ErrTimerNotFound)

	_, err = app.StartTimer(ctx, "missing")
	assert.ErrorIs(t, err, ErrTimerNotFound)

	_, err = app.PauseTimer(ctx, "missing")
	assert.ErrorIs(t, err, ErrTimerNotFound)

	_, err = app.StopTimer(ctx, "missing")
	assert.ErrorIs(t, err, ErrTimerNotFound)
}

func TestSetThenGet(t *testing.T) {
	app, _, clock := newTestApp()
	ctx := context.Background()

	set, err := app.SetTimer(ctx, "alarm", models.Duration{Minutes: 1})
	require.NoError(t, err)
	assert.Equal(t, models.TimerStateInactive, set.State)

	got, err := app.GetTimer(ctx, "alarm")
	require.NoError(t, err)

	wantEnd := clock.Now().UTC().Add(time.Minute)
	require.NotNil(t, got.EndDate)
	require.NotNil(t, got.PausedDate)
	assert.Equal(t, models.TimerStateInactive, got.State)
	assert.True(t, got.EndDate.Equal(wantEnd), "end_date = %v, want %v", got.EndDate, wantEnd)
	assert.True(t, got.PausedDate.Equal(clock.Now().UTC()))
}

func TestSetRejectsOutOfBoundDurations(t *testing.T) {
	app, repo, _ := newTestApp()
	ctx := context.Background()

	for _, dur := range []models.Duration{
		{Hours: 25},
		{Minutes: 61},
		{Seconds: 61},
		{Days: -1},
		{Seconds: -1},
	} {
		_, err := app.SetTimer(ctx, "alarm", dur)
		assert.ErrorIs(t, err, ErrInvalidDuration, "duration %+v", dur)
	}

	_, exists := repo.snapshot("alarm")
	assert.False(t, exists, "rejected set must not touch the store")
}

func TestSetAcceptsBoundaryDurations(t *testing.T) {
	app, _, _ := newTestApp()
	ctx := context.Background()

	set, err := app.SetTimer(ctx, "alarm", models.Duration{Days: 2, Hours: 24, Minutes: 60, Seconds: 60})
	require.NoError(t, err)
	assert.Equal(t, models.TimerStateInactive, set.State)
}

func TestSetReplacesInactiveTimer(t *testing.T) {
	app, _, clock := newTestApp()
	ctx := context.Background()

	_, err := app.SetTimer(ctx, "alarm", models.Duration{Minutes: 1})
	require.NoError(t, err)

	clock.Advance(10 * time.Second)

	set, err := app.SetTimer(ctx, "alarm", models.Duration{Minutes: 5})
	require.NoError(t, err)

	wantEnd := clock.Now().UTC().Add(5 * time.Minute)
	assert.True(t, set.EndDate.Equal(wantEnd))
}

func TestSetConflictsWithRunningTimer(t *testing.T) {
	app, _, _ := newTestApp()
	ctx := context.Background()

	_, err := app.SetTimer(ctx, "alarm", models.Duration{Minutes: 1})
	require.NoError(t, err)
	_, err = app.StartTimer(ctx, "alarm")
	require.NoError(t, err)

	_, err = app.SetTimer(ctx, "alarm", models.Duration{Minutes: 2})
	assert.ErrorIs(t, err, ErrSetConflict)

	_, err = app.PauseTimer(ctx, "alarm")
	require.NoError(t, err)

	_, err = app.SetTimer(ctx, "alarm", models.Duration{Minutes: 2})
	assert.ErrorIs(t, err, ErrSetConflict)
}

func TestIllegalTransitionsDoNotMutate(t *testing.T) {
	app, repo, _ := newTestApp()
	ctx := context.Background()

	_, err := app.SetTimer(ctx, "alarm", models.Duration{Minutes: 1})
	require.NoError(t, err)

	// pause on inactive
	_, err = app.PauseTimer(ctx, "alarm")
	assert.ErrorIs(t, err, ErrPauseConflict)
	got, _ := repo.snapshot("alarm")
	assert.Equal(t, models.TimerStateInactive, got.State)

	// start on active
	_, err = app.StartTimer(ctx, "alarm")
	require.NoError(t, err)
	_, err = app.StartTimer(ctx, "alarm")
	assert.ErrorIs(t, err, ErrStartConflict)
	got, _ = repo.snapshot("alarm")
	assert.Equal(t, models.TimerStateActive, got.State)

	// stop on undefined
	_, err = app.StopTimer(ctx, "alarm")
	require.NoError(t, err)
	_, err = app.StopTimer(ctx, "alarm")
	assert.ErrorIs(t, err, ErrStopConflict)
	got, _ = repo.snapshot("alarm")
	assert.Equal(t, models.TimerStateUndefined, got.State)
}

// The alarm scenario: one minute countdown, started, paused after 10s, resumed
// after 5s more. The deadline shifts forward by exactly the paused interval,
// preserving the remaining countdown.
func TestPauseResumePreservesRemainingTime(t *testing.T) {
	app, _, clock := newTestApp()
	ctx := context.Background()

	t0 := clock.Now().UTC()

	_, err := app.SetTimer(ctx, "alarm", models.Duration{Minutes: 1})
	require.NoError(t, err)

	started, err := app.StartTimer(ctx, "alarm")
	require.NoError(t, err)
	assert.Equal(t, models.TimerStateActive, started.State)
	// pausedDate age is zero on the fake clock, so the deadline does not move
	assert.True(t, started.EndDate.Equal(t0.Add(time.Minute)))

	clock.Advance(10 * time.Second)

	paused, err := app.PauseTimer(ctx, "alarm")
	require.NoError(t, err)
	assert.Equal(t, models.TimerStatePaused, paused.State)
	// endDate untouched by pause, pausedDate anchored to now
	assert.True(t, paused.EndDate.Equal(t0.Add(time.Minute)))
	assert.True(t, paused.PausedDate.Equal(t0.Add(10*time.Second)))

	clock.Advance(5 * time.Second)

	resumed, err := app.StartTimer(ctx, "alarm")
	require.NoError(t, err)
	// deadline shifted forward by the 5s paused interval
	assert.True(t, resumed.EndDate.Equal(t0.Add(65*time.Second)))
	// 50s remained at pause; 50s remain now
	assert.Equal(t, 50*time.Second, resumed.EndDate.Sub(clock.Now().UTC()))
}

func TestRemainingTimeInvariantAcrossManyCycles(t *testing.T) {
	app, _, clock := newTestApp()
	ctx := context.Background()

	_, err := app.SetTimer(ctx, "alarm", models.Duration{Minutes: 10})
	require.NoError(t, err)

	var activeElapsed time.Duration
	for i := 0; i < 5; i++ {
		_, err := app.StartTimer(ctx, "alarm")
		require.NoError(t, err)

		clock.Advance(7 * time.Second)
		activeElapsed += 7 * time.Second

		_, err = app.PauseTimer(ctx, "alarm")
		require.NoError(t, err)

		// paused interval must not eat into the countdown
		clock.Advance(93 * time.Second)
	}

	resumed, err := app.StartTimer(ctx, "alarm")
	require.NoError(t, err)

	remaining := resumed.EndDate.Sub(clock.Now().UTC())
	assert.Equal(t, 10*time.Minute-activeElapsed, remaining)
}

func TestStopClearsDates(t *testing.T) {
	app, repo, _ := newTestApp()
	ctx := context.Background()

	_, err := app.SetTimer(ctx, "alarm", models.Duration{Seconds: 30})
	require.NoError(t, err)
	_, err = app.StartTimer(ctx, "alarm")
	require.NoError(t, err)
	_, err = app.PauseTimer(ctx, "alarm")
	require.NoError(t, err)

	stopped, err := app.StopTimer(ctx, "alarm")
	require.NoError(t, err)
	assert.Equal(t, models.TimerStateUndefined, stopped.State)
	assert.Nil(t, stopped.EndDate)
	assert.Nil(t, stopped.PausedDate)

	got, _ := repo.snapshot("alarm")
	assert.Nil(t, got.EndDate)
	assert.Nil(t, got.PausedDate)

	// a stopped event can be set again
	_, err = app.SetTimer(ctx, "alarm", models.Duration{Seconds: 30})
	assert.NoError(t, err)
}

func TestStopLegalFromInactive(t *testing.T) {
	app, _, _ := newTestApp()
	ctx := context.Background()

	_, err := app.SetTimer(ctx, "alarm", models.Duration{Seconds: 30})
	require.NoError(t, err)

	stopped, err := app.StopTimer(ctx, "alarm")
	require.NoError(t, err)
	assert.Equal(t, models.TimerStateUndefined, stopped.State)
}

func TestStoreFailuresAreWrapped(t *testing.T) {
	app, repo, _ := newTestApp()
	ctx := context.Background()

	repo.failWith = errors.New("connection refused")

	_, err := app.GetTimer(ctx, "alarm")
	assert.ErrorIs(t, err, ErrStoreFailure)

	_, err = app.SetTimer(ctx, "alarm", models.Duration{Minutes: 1})
	assert.ErrorIs(t, err, ErrStoreFailure)
}

package timer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vlasebian/timerbe/internal/models"
)

// Querier defines what the repository needs from the database layer.
// *pgxpool.Pool satisfies it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements timer data access on Postgres, keyed by event name.
type Repository struct {
	db Querier
}

// NewRepository creates a new timer repository.
func NewRepository(db Querier) *Repository {
	return &Repository{
		db: db,
	}
}

// UpsertTimerRequest fully replaces the record for an event.
type UpsertTimerRequest struct {
	Event      string            `json:"event"`
	State      models.TimerState `json:"state"`
	EndDate    time.Time         `json:"end_date"`
	PausedDate time.Time         `json:"paused_date"`
}

// UpdateTimerFieldsRequest updates individual fields; nil means unchanged.
type UpdateTimerFieldsRequest struct {
	State      *models.TimerState `json:"state,omitempty"`
	EndDate    *time.Time         `json:"end_date,omitempty"`
	PausedDate *time.Time         `json:"paused_date,omitempty"`
}

const timerColumns = "event, state, end_date, paused_date, created_at, updated_at"

// GetTimer retrieves a timer by event name.
func (r *Repository) GetTimer(ctx context.Context, event string) (*models.Timer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+timerColumns+` FROM timers WHERE event = $1`,
		event,
	)

	t, err := scanTimer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimerNotFound
		}
		return nil, fmt.Errorf("failed to get timer: %w", err)
	}

	return t, nil
}

// UpsertTimer creates or fully replaces the record for an event.
func (r *Repository) UpsertTimer(ctx context.Context, req UpsertTimerRequest) (*models.Timer, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO timers (event, state, end_date, paused_date)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (event) DO UPDATE
		 SET state = EXCLUDED.state,
		     end_date = EXCLUDED.end_date,
		     paused_date = EXCLUDED.paused_date,
		     updated_at = now()
		 RETURNING `+timerColumns,
		req.Event, req.State, req.EndDate, req.PausedDate,
	)

	t, err := scanTimer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert timer: %w", err)
	}

	return t, nil
}

// UpdateTimerFields applies a partial update keyed by event name and returns
// the updated record.
func (r *Repository) UpdateTimerFields(ctx context.Context, event string, req UpdateTimerFieldsRequest) (*models.Timer, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE timers
		 SET state = COALESCE($2, state),
		     end_date = COALESCE($3, end_date),
		     paused_date = COALESCE($4, paused_date),
		     updated_at = now()
		 WHERE event = $1
		 RETURNING `+timerColumns,
		event, req.State, req.EndDate, req.PausedDate,
	)

	t, err := scanTimer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimerNotFound
		}
		return nil, fmt.Errorf("failed to update timer: %w", err)
	}

	return t, nil
}

// ResetTimer returns the record to the undefined state with both dates
// cleared. The row itself is kept.
func (r *Repository) ResetTimer(ctx context.Context, event string) (*models.Timer, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE timers
		 SET state = $2,
		     end_date = NULL,
		     paused_date = NULL,
		     updated_at = now()
		 WHERE event = $1
		 RETURNING `+timerColumns,
		event, models.TimerStateUndefined,
	)

	t, err := scanTimer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimerNotFound
		}
		return nil, fmt.Errorf("failed to reset timer: %w", err)
	}

	return t, nil
}

// scanTimer reads one timer row into the domain model.
func scanTimer(row pgx.Row) (*models.Timer, error) {
	var t models.Timer
	err := row.Scan(&t.Event, &t.State, &t.EndDate, &t.PausedDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

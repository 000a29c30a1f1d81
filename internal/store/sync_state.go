package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// InitSyncState creates the athlete's sync-state row in pending if it does
// not already exist. Reconnecting keeps existing history.
func (s *Store) InitSyncState(ctx context.Context, athleteID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_states (athlete_id, status)
		VALUES (?, 'pending')
		ON CONFLICT(athlete_id) DO NOTHING
	`, athleteID)
	return err
}

// GetSyncState retrieves the athlete's sync state, or nil if the athlete
// has never connected.
func (s *Store) GetSyncState(ctx context.Context, athleteID string) (*SyncState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT athlete_id, status, last_synced_at, last_error, error_count,
			initial_backfill_completed
		FROM sync_states
		WHERE athlete_id = ?
	`, athleteID)

	state, err := scanSyncState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return state, err
}

// BeginSync transitions the athlete into in_progress and returns the sync
// state as of that moment; its watermark is the snapshot the attempt runs
// against. The check-and-set is a single conditional statement: of any
// number of racing callers exactly one wins, the rest get
// ErrSyncInProgress.
func (s *Store) BeginSync(ctx context.Context, athleteID string) (*SyncState, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_states (athlete_id, status, updated_at)
		VALUES (?, 'in_progress', CURRENT_TIMESTAMP)
		ON CONFLICT(athlete_id) DO UPDATE SET
			status = 'in_progress',
			updated_at = CURRENT_TIMESTAMP
		WHERE sync_states.status != 'in_progress'
	`, athleteID)
	if err != nil {
		return nil, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrSyncInProgress
	}

	return s.mustGetSyncState(ctx, athleteID)
}

// FinishSyncSuccess records a completed attempt. The watermark only ever
// moves forward, the error bookkeeping resets, and the backfill flag
// latches true.
func (s *Store) FinishSyncSuccess(ctx context.Context, athleteID string, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_states SET
			status = 'completed',
			last_synced_at = MAX(COALESCE(last_synced_at, 0), ?),
			last_error = NULL,
			error_count = 0,
			initial_backfill_completed = 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE athlete_id = ?
	`, completedAt.Unix(), athleteID)
	return err
}

// FinishSyncFailure records a failed attempt. The watermark is left where
// it was so the next attempt re-fetches from the same point.
func (s *Store) FinishSyncFailure(ctx context.Context, athleteID, cause string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_states SET
			status = 'failed',
			last_error = ?,
			error_count = error_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE athlete_id = ?
	`, cause, athleteID)
	return err
}

func (s *Store) mustGetSyncState(ctx context.Context, athleteID string) (*SyncState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT athlete_id, status, last_synced_at, last_error, error_count,
			initial_backfill_completed
		FROM sync_states
		WHERE athlete_id = ?
	`, athleteID)
	return scanSyncState(row)
}

func scanSyncState(row *sql.Row) (*SyncState, error) {
	var state SyncState
	var status string
	var lastSyncedAt sql.NullInt64
	var lastError sql.NullString
	var backfill int64

	err := row.Scan(&state.AthleteID, &status, &lastSyncedAt, &lastError,
		&state.ErrorCount, &backfill)
	if err != nil {
		return nil, err
	}

	state.Status = SyncStatus(status)
	if lastSyncedAt.Valid {
		t := time.Unix(lastSyncedAt.Int64, 0)
		state.LastSyncedAt = &t
	}
	if lastError.Valid {
		state.LastError = &lastError.String
	}
	state.InitialBackfillCompleted = backfill == 1

	return &state, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SaveOAuthState records a state token for a pending OAuth connect
func (s *Store) SaveOAuthState(ctx context.Context, state, athleteID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_states (state, athlete_id, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(state) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			expires_at = excluded.expires_at
	`, state, athleteID, expiresAt.Unix())
	return err
}

// ConsumeOAuthState resolves a state token to the athlete who initiated
// the connect and deletes it in the same statement, so a token can be
// used at most once.
func (s *Store) ConsumeOAuthState(ctx context.Context, state string, now time.Time) (string, error) {
	var athleteID string
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM oauth_states
		WHERE state = ? AND expires_at > ?
		RETURNING athlete_id
	`, state, now.Unix()).Scan(&athleteID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", err
	}
	return athleteID, nil
}

// CleanupExpiredOAuthStates removes state tokens past their expiry
func (s *Store) CleanupExpiredOAuthStates(ctx context.Context, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM oauth_states WHERE expires_at <= ?
	`, now.Unix())
	return err
}

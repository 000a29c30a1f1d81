package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetCredentials retrieves the stored OAuth tokens for an athlete
func (s *Store) GetCredentials(ctx context.Context, athleteID string) (*Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT athlete_id, access_token, refresh_token, expires_at, token_type
		FROM oauth_credentials
		WHERE athlete_id = ?
	`, athleteID)

	var cred Credential
	var expiresAt int64
	err := row.Scan(&cred.AthleteID, &cred.AccessToken, &cred.RefreshToken,
		&expiresAt, &cred.TokenType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}

	cred.ExpiresAt = time.Unix(expiresAt, 0)
	return &cred, nil
}

// SaveCredentials stores or replaces the athlete's OAuth tokens. Access
// token, refresh token and expiry are written in one statement so the
// stored expiry always describes the stored token.
func (s *Store) SaveCredentials(ctx context.Context, cred *Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_credentials (
			athlete_id, access_token, refresh_token, expires_at, token_type, updated_at
		) VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(athlete_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			token_type = excluded.token_type,
			updated_at = CURRENT_TIMESTAMP
	`, cred.AthleteID, cred.AccessToken, cred.RefreshToken,
		cred.ExpiresAt.Unix(), cred.TokenType)
	return err
}

// DeleteCredentials removes the athlete's OAuth tokens. Identity, sync
// history and activities are retained.
func (s *Store) DeleteCredentials(ctx context.Context, athleteID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM oauth_credentials WHERE athlete_id = ?
	`, athleteID)
	return err
}

// HasCredentials reports whether the athlete has a Strava connection
func (s *Store) HasCredentials(ctx context.Context, athleteID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM oauth_credentials WHERE athlete_id = ?
	`, athleteID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

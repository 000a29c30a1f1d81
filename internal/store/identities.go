package store

import (
	"context"
	"database/sql"
	"errors"
)

// UpsertIdentity creates or updates the athlete's Strava identity. The
// insert is atomic: two racing connect callbacks for the same athlete
// both land on the one row, last writer wins.
func (s *Store) UpsertIdentity(ctx context.Context, id *AthleteIdentity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO athlete_identities (
			athlete_id, strava_athlete_id, username, firstname, lastname,
			profile_medium, scope, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(athlete_id) DO UPDATE SET
			strava_athlete_id = excluded.strava_athlete_id,
			username = excluded.username,
			firstname = excluded.firstname,
			lastname = excluded.lastname,
			profile_medium = excluded.profile_medium,
			scope = excluded.scope,
			updated_at = CURRENT_TIMESTAMP
	`, id.AthleteID, id.StravaAthleteID, id.Username, id.Firstname, id.Lastname,
		id.ProfileMedium, id.Scope)
	return err
}

// GetIdentity retrieves the athlete's Strava identity
func (s *Store) GetIdentity(ctx context.Context, athleteID string) (*AthleteIdentity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT athlete_id, strava_athlete_id, username, firstname, lastname,
			profile_medium, scope
		FROM athlete_identities
		WHERE athlete_id = ?
	`, athleteID)

	var id AthleteIdentity
	err := row.Scan(&id.AthleteID, &id.StravaAthleteID, &id.Username,
		&id.Firstname, &id.Lastname, &id.ProfileMedium, &id.Scope)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

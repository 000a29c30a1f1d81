package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrTrainingLogEntryNotFound is returned when a training-log entry doesn't exist
var ErrTrainingLogEntryNotFound = errors.New("training log entry not found")

// UpsertTrainingLogEntry inserts or overwrites the training-log projection
// for one activity, keyed by the same Strava id as its source.
func (s *Store) UpsertTrainingLogEntry(ctx context.Context, e *TrainingLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO training_log_entries (
			strava_activity_id, athlete_id, log_date, activity_name,
			activity_type, duration_minutes, distance_km, elevation_gain_m,
			average_heart_rate, max_heart_rate, average_power_watts,
			max_power_watts, calories_burned, synced_from_strava, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(strava_activity_id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			log_date = excluded.log_date,
			activity_name = excluded.activity_name,
			activity_type = excluded.activity_type,
			duration_minutes = excluded.duration_minutes,
			distance_km = excluded.distance_km,
			elevation_gain_m = excluded.elevation_gain_m,
			average_heart_rate = excluded.average_heart_rate,
			max_heart_rate = excluded.max_heart_rate,
			average_power_watts = excluded.average_power_watts,
			max_power_watts = excluded.max_power_watts,
			calories_burned = excluded.calories_burned,
			synced_from_strava = excluded.synced_from_strava,
			updated_at = CURRENT_TIMESTAMP
	`, e.StravaActivityID, e.AthleteID, e.LogDate.UTC().Format(time.RFC3339),
		e.ActivityName, e.ActivityType, e.DurationMinutes, e.DistanceKm,
		e.ElevationGainM, e.AverageHeartRate, e.MaxHeartRate,
		e.AveragePowerWatts, e.MaxPowerWatts, e.CaloriesBurned,
		boolInt(e.SyncedFromStrava))
	return err
}

// GetTrainingLogEntry retrieves the projection for one activity
func (s *Store) GetTrainingLogEntry(ctx context.Context, stravaActivityID int64) (*TrainingLogEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT strava_activity_id, athlete_id, log_date, activity_name,
			activity_type, duration_minutes, distance_km, elevation_gain_m,
			average_heart_rate, max_heart_rate, average_power_watts,
			max_power_watts, calories_burned, synced_from_strava
		FROM training_log_entries
		WHERE strava_activity_id = ?
	`, stravaActivityID)

	var e TrainingLogEntry
	var logDate string
	var synced int64
	err := row.Scan(&e.StravaActivityID, &e.AthleteID, &logDate,
		&e.ActivityName, &e.ActivityType, &e.DurationMinutes, &e.DistanceKm,
		&e.ElevationGainM, &e.AverageHeartRate, &e.MaxHeartRate,
		&e.AveragePowerWatts, &e.MaxPowerWatts, &e.CaloriesBurned, &synced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrainingLogEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	if e.LogDate, err = time.Parse(time.RFC3339, logDate); err != nil {
		return nil, fmt.Errorf("parsing log_date %q: %w", logDate, err)
	}
	e.SyncedFromStrava = synced == 1

	return &e, nil
}

// CountTrainingLogEntries returns how many projections exist for an athlete
func (s *Store) CountTrainingLogEntries(ctx context.Context, athleteID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM training_log_entries WHERE athlete_id = ?
	`, athleteID).Scan(&count)
	return count, err
}

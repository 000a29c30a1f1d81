package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

const upsertActivitySQL = `
	INSERT INTO activities (
		strava_activity_id, athlete_id, name, type, sport_type, description,
		start_date, start_date_local, timezone, moving_time, elapsed_time,
		distance, total_elevation_gain, average_speed, max_speed,
		average_heartrate, max_heartrate, average_cadence, average_watts,
		max_watts, kilojoules, calories, suffer_score, gear_id, trainer,
		commute, manual, private, achievement_count, kudos_count,
		comment_count, athlete_count, photo_count, map_summary_polyline,
		updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(strava_activity_id) DO UPDATE SET
		athlete_id = excluded.athlete_id,
		name = excluded.name,
		type = excluded.type,
		sport_type = excluded.sport_type,
		description = excluded.description,
		start_date = excluded.start_date,
		start_date_local = excluded.start_date_local,
		timezone = excluded.timezone,
		moving_time = excluded.moving_time,
		elapsed_time = excluded.elapsed_time,
		distance = excluded.distance,
		total_elevation_gain = excluded.total_elevation_gain,
		average_speed = excluded.average_speed,
		max_speed = excluded.max_speed,
		average_heartrate = excluded.average_heartrate,
		max_heartrate = excluded.max_heartrate,
		average_cadence = excluded.average_cadence,
		average_watts = excluded.average_watts,
		max_watts = excluded.max_watts,
		kilojoules = excluded.kilojoules,
		calories = excluded.calories,
		suffer_score = excluded.suffer_score,
		gear_id = excluded.gear_id,
		trainer = excluded.trainer,
		commute = excluded.commute,
		manual = excluded.manual,
		private = excluded.private,
		achievement_count = excluded.achievement_count,
		kudos_count = excluded.kudos_count,
		comment_count = excluded.comment_count,
		athlete_count = excluded.athlete_count,
		photo_count = excluded.photo_count,
		map_summary_polyline = excluded.map_summary_polyline,
		updated_at = CURRENT_TIMESTAMP
`

// UpsertActivity inserts or fully overwrites one activity keyed by its
// Strava id. The remote copy is authoritative.
func (s *Store) UpsertActivity(ctx context.Context, a *Activity) error {
	_, err := s.db.ExecContext(ctx, upsertActivitySQL, activityArgs(a)...)
	return err
}

// UpsertActivities applies a batch of activities in one transaction,
// upserting row by row. Re-applying any subset of the batch is a no-op
// apart from refreshed timestamps.
func (s *Store) UpsertActivities(ctx context.Context, activities []*Activity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertActivitySQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range activities {
		if _, err := stmt.ExecContext(ctx, activityArgs(a)...); err != nil {
			return fmt.Errorf("upserting activity %d: %w", a.StravaActivityID, err)
		}
	}

	return tx.Commit()
}

// GetActivity retrieves one activity by its Strava id
func (s *Store) GetActivity(ctx context.Context, stravaActivityID int64) (*Activity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT strava_activity_id, athlete_id, name, type, sport_type,
			description, start_date, start_date_local, timezone, moving_time,
			elapsed_time, distance, total_elevation_gain, average_speed,
			max_speed, average_heartrate, max_heartrate, average_cadence,
			average_watts, max_watts, kilojoules, calories, suffer_score,
			gear_id, trainer, commute, manual, private, achievement_count,
			kudos_count, comment_count, athlete_count, photo_count,
			map_summary_polyline
		FROM activities
		WHERE strava_activity_id = ?
	`, stravaActivityID)

	a, err := scanActivity(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// CountActivities returns how many activities are stored for an athlete
func (s *Store) CountActivities(ctx context.Context, athleteID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activities WHERE athlete_id = ?
	`, athleteID).Scan(&count)
	return count, err
}

// GetSummaryStats aggregates the athlete's stored activities: overall
// totals plus a per-type breakdown.
func (s *Store) GetSummaryStats(ctx context.Context, athleteID string) (*SummaryStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*), SUM(distance), SUM(moving_time),
			SUM(COALESCE(total_elevation_gain, 0))
		FROM activities
		WHERE athlete_id = ?
		GROUP BY type
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &SummaryStats{ByType: make(map[string]TypeStats)}
	for rows.Next() {
		var typ string
		var ts TypeStats
		var elevation float64
		if err := rows.Scan(&typ, &ts.Count, &ts.Distance, &ts.Time, &elevation); err != nil {
			return nil, err
		}
		stats.ByType[typ] = ts
		stats.TotalActivities += ts.Count
		stats.TotalDistance += ts.Distance
		stats.TotalTime += ts.Time
		stats.TotalElevation += elevation
	}

	return stats, rows.Err()
}

func activityArgs(a *Activity) []interface{} {
	return []interface{}{
		a.StravaActivityID, a.AthleteID, a.Name, a.Type, a.SportType,
		a.Description, a.StartDate.UTC().Format(time.RFC3339),
		a.StartDateLocal.Format(time.RFC3339), a.Timezone, a.MovingTime,
		a.ElapsedTime, a.Distance, a.TotalElevationGain, a.AverageSpeed,
		a.MaxSpeed, a.AverageHeartrate, a.MaxHeartrate, a.AverageCadence,
		a.AverageWatts, a.MaxWatts, a.Kilojoules, a.Calories, a.SufferScore,
		a.GearID, boolInt(a.Trainer), boolInt(a.Commute), boolInt(a.Manual),
		boolInt(a.Private), a.AchievementCount, a.KudosCount, a.CommentCount,
		a.AthleteCount, a.PhotoCount, a.MapSummaryPolyline,
	}
}

func scanActivity(scan func(...interface{}) error) (*Activity, error) {
	var a Activity
	var startDate, startDateLocal string
	var timezone sql.NullString
	var trainer, commute, manual, private int64

	err := scan(
		&a.StravaActivityID, &a.AthleteID, &a.Name, &a.Type, &a.SportType,
		&a.Description, &startDate, &startDateLocal, &timezone, &a.MovingTime,
		&a.ElapsedTime, &a.Distance, &a.TotalElevationGain, &a.AverageSpeed,
		&a.MaxSpeed, &a.AverageHeartrate, &a.MaxHeartrate, &a.AverageCadence,
		&a.AverageWatts, &a.MaxWatts, &a.Kilojoules, &a.Calories,
		&a.SufferScore, &a.GearID, &trainer, &commute, &manual, &private,
		&a.AchievementCount, &a.KudosCount, &a.CommentCount, &a.AthleteCount,
		&a.PhotoCount, &a.MapSummaryPolyline,
	)
	if err != nil {
		return nil, err
	}

	if a.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	if a.StartDateLocal, err = time.Parse(time.RFC3339, startDateLocal); err != nil {
		return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal, err)
	}
	a.Timezone = timezone.String
	a.Trainer = trainer == 1
	a.Commute = commute == 1
	a.Manual = manual == 1
	a.Private = private == 1

	return &a, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// One external Strava account per internal athlete. Never deleted
		// implicitly: disconnect removes credentials, not identity history.
		`CREATE TABLE IF NOT EXISTS athlete_identities (
			athlete_id TEXT PRIMARY KEY,
			strava_athlete_id INTEGER NOT NULL,
			username TEXT,
			firstname TEXT,
			lastname TEXT,
			profile_medium TEXT,
			scope TEXT NOT NULL DEFAULT '',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// OAuth tokens, one row per athlete, replaced as a unit on refresh
		`CREATE TABLE IF NOT EXISTS oauth_credentials (
			athlete_id TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			token_type TEXT NOT NULL DEFAULT 'Bearer',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Short-lived opaque tokens binding an OAuth callback to the
		// athlete who initiated the connect
		`CREATE TABLE IF NOT EXISTS oauth_states (
			state TEXT PRIMARY KEY,
			athlete_id TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Per-athlete sync bookkeeping, mutated only through the Store's
		// sync-state methods
		`CREATE TABLE IF NOT EXISTS sync_states (
			athlete_id TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'pending',
			last_synced_at INTEGER,
			last_error TEXT,
			error_count INTEGER NOT NULL DEFAULT 0,
			initial_backfill_completed INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Activities keyed by Strava's activity id, the upsert conflict key
		`CREATE TABLE IF NOT EXISTS activities (
			strava_activity_id INTEGER PRIMARY KEY,
			athlete_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			sport_type TEXT NOT NULL,
			description TEXT,
			start_date TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			timezone TEXT,
			moving_time INTEGER NOT NULL,
			elapsed_time INTEGER NOT NULL,
			distance REAL NOT NULL,
			total_elevation_gain REAL,
			average_speed REAL,
			max_speed REAL,
			average_heartrate REAL,
			max_heartrate REAL,
			average_cadence REAL,
			average_watts REAL,
			max_watts REAL,
			kilojoules REAL,
			calories REAL,
			suffer_score INTEGER,
			gear_id TEXT,
			trainer INTEGER NOT NULL DEFAULT 0,
			commute INTEGER NOT NULL DEFAULT 0,
			manual INTEGER NOT NULL DEFAULT 0,
			private INTEGER NOT NULL DEFAULT 0,
			achievement_count INTEGER NOT NULL DEFAULT 0,
			kudos_count INTEGER NOT NULL DEFAULT 0,
			comment_count INTEGER NOT NULL DEFAULT 0,
			athlete_count INTEGER NOT NULL DEFAULT 0,
			photo_count INTEGER NOT NULL DEFAULT 0,
			map_summary_polyline TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_athlete ON activities(athlete_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(type)`,

		// Denormalized training-log projection, keyed like its source
		// activity. Display data: losing a row never fails a sync.
		`CREATE TABLE IF NOT EXISTS training_log_entries (
			strava_activity_id INTEGER PRIMARY KEY,
			athlete_id TEXT NOT NULL,
			log_date TEXT NOT NULL,
			activity_name TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			distance_km REAL,
			elevation_gain_m REAL,
			average_heart_rate INTEGER,
			max_heart_rate REAL,
			average_power_watts REAL,
			max_power_watts REAL,
			calories_burned REAL,
			synced_from_strava INTEGER NOT NULL DEFAULT 1,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_training_log_athlete ON training_log_entries(athlete_id)`,
		`CREATE INDEX IF NOT EXISTS idx_training_log_date ON training_log_entries(log_date)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

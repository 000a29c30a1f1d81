package store

import "time"

// SyncStatus is the state of an athlete's sync pipeline
type SyncStatus string

const (
	SyncPending    SyncStatus = "pending"
	SyncInProgress SyncStatus = "in_progress"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
)

// AthleteIdentity maps an internal athlete to their Strava account
type AthleteIdentity struct {
	AthleteID       string
	StravaAthleteID int64
	Username        string
	Firstname       string
	Lastname        string
	ProfileMedium   string
	Scope           string
}

// Credential is the OAuth token set stored for one athlete. ExpiresAt
// always describes the access token in the same row; the three fields are
// only ever replaced together.
type Credential struct {
	AthleteID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	TokenType    string
}

// SyncState is the per-athlete sync bookkeeping row
type SyncState struct {
	AthleteID                string
	Status                   SyncStatus
	LastSyncedAt             *time.Time // watermark; nil until the first successful sync
	LastError                *string
	ErrorCount               int
	InitialBackfillCompleted bool
}

// Activity is a locally stored Strava activity. Optional upstream fields
// are pointers; nil means the provider did not report them.
type Activity struct {
	StravaActivityID   int64
	AthleteID          string
	Name               string
	Type               string
	SportType          string
	Description        *string
	StartDate          time.Time
	StartDateLocal     time.Time
	Timezone           string
	MovingTime         int
	ElapsedTime        int
	Distance           float64
	TotalElevationGain float64
	AverageSpeed       float64
	MaxSpeed           float64
	AverageHeartrate   *float64
	MaxHeartrate       *float64
	AverageCadence     *float64
	AverageWatts       *float64
	MaxWatts           *float64
	Kilojoules         *float64
	Calories           *float64
	SufferScore        *int
	GearID             *string
	Trainer            bool
	Commute            bool
	Manual             bool
	Private            bool
	AchievementCount   int
	KudosCount         int
	CommentCount       int
	AthleteCount       int
	PhotoCount         int
	MapSummaryPolyline *string
}

// TrainingLogEntry is the human-readable projection of an Activity
type TrainingLogEntry struct {
	StravaActivityID  int64
	AthleteID         string
	LogDate           time.Time
	ActivityName      string
	ActivityType      string
	DurationMinutes   int
	DistanceKm        *float64
	ElevationGainM    *float64
	AverageHeartRate  *int
	MaxHeartRate      *float64
	AveragePowerWatts *float64
	MaxPowerWatts     *float64
	CaloriesBurned    *float64
	SyncedFromStrava  bool
}

// TypeStats aggregates activities of one type
type TypeStats struct {
	Count    int
	Distance float64
	Time     int
}

// SummaryStats aggregates an athlete's stored activities for display
type SummaryStats struct {
	TotalActivities int
	TotalDistance   float64
	TotalTime       int
	TotalElevation  float64
	ByType          map[string]TypeStats
}

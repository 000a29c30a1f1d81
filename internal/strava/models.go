package strava

import "time"

// Activity is an activity summary from the Strava API.
//
// Fields Strava may omit are pointers so that "not recorded" survives the
// trip into storage. A zero average heart rate and a missing one are
// different things.
type Activity struct {
	ID                 int64     `json:"id"`
	Athlete            Athlete   `json:"athlete"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	Description        *string   `json:"description"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     time.Time `json:"start_date_local"`
	Timezone           string    `json:"timezone"`
	Distance           float64   `json:"distance"`             // meters
	MovingTime         int       `json:"moving_time"`          // seconds
	ElapsedTime        int       `json:"elapsed_time"`         // seconds
	TotalElevationGain float64   `json:"total_elevation_gain"` // meters
	AverageSpeed       float64   `json:"average_speed"`        // m/s
	MaxSpeed           float64   `json:"max_speed"`            // m/s
	AverageHeartrate   *float64  `json:"average_heartrate"`    // bpm
	MaxHeartrate       *float64  `json:"max_heartrate"`        // bpm
	AverageCadence     *float64  `json:"average_cadence"`      // rpm or spm
	AverageWatts       *float64  `json:"average_watts"`
	MaxWatts           *float64  `json:"max_watts"`
	Kilojoules         *float64  `json:"kilojoules"`
	Calories           *float64  `json:"calories"`
	SufferScore        *int      `json:"suffer_score"`
	GearID             *string   `json:"gear_id"`
	Trainer            bool      `json:"trainer"`
	Commute            bool      `json:"commute"`
	Manual             bool      `json:"manual"`
	Private            bool      `json:"private"`
	AchievementCount   int       `json:"achievement_count"`
	KudosCount         int       `json:"kudos_count"`
	CommentCount       int       `json:"comment_count"`
	AthleteCount       int       `json:"athlete_count"`
	PhotoCount         int       `json:"photo_count"`
	Map                *Map      `json:"map"`
}

// Map is the route summary attached to an activity
type Map struct {
	ID              string `json:"id"`
	SummaryPolyline string `json:"summary_polyline"`
}

// Athlete is the Strava athlete profile included in token responses
// (and, id-only, on each activity)
type Athlete struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Firstname     string `json:"firstname"`
	Lastname      string `json:"lastname"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Sex           string `json:"sex"`
	Profile       string `json:"profile"`
	ProfileMedium string `json:"profile_medium"`
}

// TokenSet is a stored OAuth credential triple. ExpiresAt always describes
// the access token currently in AccessToken.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	TokenType    string
}

// ConnectResult is the outcome of a successful code exchange
type ConnectResult struct {
	Tokens  TokenSet
	Athlete Athlete
}

package service

import (
	"math"

	"stridesync/internal/store"
	"stridesync/internal/strava"
)

// mapActivity maps one remote activity to the local schema. Ownership
// comes from our athlete id, not the provider's. Optional upstream fields
// pass through as pointers; a field Strava omitted stays absent instead of
// collapsing to zero.
func mapActivity(athleteID string, a *strava.Activity) *store.Activity {
	rec := &store.Activity{
		StravaActivityID:   a.ID,
		AthleteID:          athleteID,
		Name:               a.Name,
		Type:               a.Type,
		SportType:          a.SportType,
		Description:        a.Description,
		StartDate:          a.StartDate,
		StartDateLocal:     a.StartDateLocal,
		Timezone:           a.Timezone,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		Distance:           a.Distance,
		TotalElevationGain: a.TotalElevationGain,
		AverageSpeed:       a.AverageSpeed,
		MaxSpeed:           a.MaxSpeed,
		AverageHeartrate:   a.AverageHeartrate,
		MaxHeartrate:       a.MaxHeartrate,
		AverageCadence:     a.AverageCadence,
		AverageWatts:       a.AverageWatts,
		MaxWatts:           a.MaxWatts,
		Kilojoules:         a.Kilojoules,
		Calories:           a.Calories,
		SufferScore:        a.SufferScore,
		GearID:             a.GearID,
		Trainer:            a.Trainer,
		Commute:            a.Commute,
		Manual:             a.Manual,
		Private:            a.Private,
		AchievementCount:   a.AchievementCount,
		KudosCount:         a.KudosCount,
		CommentCount:       a.CommentCount,
		AthleteCount:       a.AthleteCount,
		PhotoCount:         a.PhotoCount,
	}

	if a.Map != nil && a.Map.SummaryPolyline != "" {
		polyline := a.Map.SummaryPolyline
		rec.MapSummaryPolyline = &polyline
	}

	return rec
}

// deriveTrainingLogEntry builds the human-readable training-log projection
// for one stored activity. Always derivable from its source record.
func deriveTrainingLogEntry(a *store.Activity) *store.TrainingLogEntry {
	entry := &store.TrainingLogEntry{
		StravaActivityID:  a.StravaActivityID,
		AthleteID:         a.AthleteID,
		LogDate:           a.StartDate,
		ActivityName:      a.Name,
		ActivityType:      a.Type,
		DurationMinutes:   int(math.Round(float64(a.MovingTime) / 60)),
		MaxHeartRate:      a.MaxHeartrate,
		AveragePowerWatts: a.AverageWatts,
		MaxPowerWatts:     a.MaxWatts,
		CaloriesBurned:    a.Calories,
		SyncedFromStrava:  true,
	}

	if a.Distance > 0 {
		km := a.Distance / 1000
		entry.DistanceKm = &km
	}
	if a.TotalElevationGain > 0 {
		elevation := a.TotalElevationGain
		entry.ElevationGainM = &elevation
	}
	if a.AverageHeartrate != nil {
		hr := int(math.Round(*a.AverageHeartrate))
		entry.AverageHeartRate = &hr
	}

	return entry
}

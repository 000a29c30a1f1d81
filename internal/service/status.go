package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stridesync/internal/store"
)

// Status is a read-only projection of an athlete's Strava connection and
// sync history. Building it never mutates sync state.
type Status struct {
	Connected                bool
	StravaAthleteID          *int64
	AthleteName              string
	AthleteImage             string
	SyncStatus               store.SyncStatus
	LastSync                 *time.Time
	LastError                *string
	ErrorCount               int
	InitialBackfillCompleted bool
	Summary                  *store.SummaryStats
}

// Status reports the athlete's connection state, last sync watermark and
// activity summary. Activities synced before a disconnect remain visible.
func (s *SyncService) Status(ctx context.Context, athleteID string) (*Status, error) {
	status := &Status{}

	connected, err := s.store.HasCredentials(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("checking credentials: %w", err)
	}
	status.Connected = connected

	identity, err := s.store.GetIdentity(ctx, athleteID)
	switch {
	case errors.Is(err, store.ErrIdentityNotFound):
		// never connected; fall through with empty identity
	case err != nil:
		return nil, fmt.Errorf("loading identity: %w", err)
	default:
		id := identity.StravaAthleteID
		status.StravaAthleteID = &id
		status.AthleteName = athleteName(identity)
		status.AthleteImage = identity.ProfileMedium
	}

	syncState, err := s.store.GetSyncState(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("loading sync state: %w", err)
	}
	if syncState != nil {
		status.SyncStatus = syncState.Status
		status.LastSync = syncState.LastSyncedAt
		status.LastError = syncState.LastError
		status.ErrorCount = syncState.ErrorCount
		status.InitialBackfillCompleted = syncState.InitialBackfillCompleted
	}

	summary, err := s.store.GetSummaryStats(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("loading summary stats: %w", err)
	}
	status.Summary = summary

	return status, nil
}

func athleteName(id *store.AthleteIdentity) string {
	name := strings.TrimSpace(id.Firstname + " " + id.Lastname)
	if name == "" {
		return id.Username
	}
	return name
}

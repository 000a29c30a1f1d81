package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stridesync/internal/store"
	"stridesync/internal/strava"
)

// SyncService runs sync attempts against Strava and owns the translation
// of failures into per-athlete sync state.
type SyncService struct {
	store  *store.Store
	client *strava.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewSyncService creates a sync service
func NewSyncService(st *store.Store, client *strava.Client, logger *zap.Logger) *SyncService {
	return &SyncService{
		store:  st,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// SyncResult reports one completed sync attempt
type SyncResult struct {
	Synced int // activities fetched and upserted by this attempt
	Total  int // activities now stored for the athlete
}

// Sync runs one sync attempt for the athlete.
//
// Returns store.ErrNotConnected when the athlete has no Strava credentials
// and store.ErrSyncInProgress when another attempt is already running.
// Any failure after the attempt has started is recorded on the sync state
// as failed, with the watermark left untouched so the next attempt
// re-fetches from the same point.
func (s *SyncService) Sync(ctx context.Context, athleteID string) (*SyncResult, error) {
	cred, err := s.store.GetCredentials(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	state, err := s.store.BeginSync(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	// The watermark is read once at the commit point and held fixed for
	// the whole attempt.
	watermark := state.LastSyncedAt

	result, err := s.run(ctx, athleteID, cred, watermark)
	if err != nil {
		cause := failureMessage(err)
		if ferr := s.store.FinishSyncFailure(ctx, athleteID, cause); ferr != nil {
			s.logger.Error("recording sync failure", zap.String("athlete_id", athleteID), zap.Error(ferr))
		}
		s.logger.Error("sync failed",
			zap.String("athlete_id", athleteID),
			zap.String("cause", cause))
		return nil, err
	}

	s.logger.Info("sync completed",
		zap.String("athlete_id", athleteID),
		zap.Int("synced", result.Synced),
		zap.Int("total", result.Total))
	return result, nil
}

// run executes the body of a sync attempt; the caller has already moved
// the athlete into in_progress and translates any error into failed.
func (s *SyncService) run(ctx context.Context, athleteID string, cred *store.Credential, watermark *time.Time) (*SyncResult, error) {
	tokens := strava.TokenSet{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    cred.ExpiresAt,
		TokenType:    cred.TokenType,
	}

	// No fetch proceeds on a stale token
	tokens, refreshed, err := s.client.RefreshIfExpired(ctx, tokens)
	if err != nil {
		return nil, err
	}
	if refreshed {
		if err := s.store.SaveCredentials(ctx, &store.Credential{
			AthleteID:    athleteID,
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresAt:    tokens.ExpiresAt,
			TokenType:    tokens.TokenType,
		}); err != nil {
			return nil, fmt.Errorf("persisting refreshed tokens: %w", err)
		}
		s.logger.Info("refreshed strava tokens", zap.String("athlete_id", athleteID))
	}

	activities, err := s.client.FetchAllSince(ctx, tokens.AccessToken, watermark)
	if err != nil {
		return nil, err
	}

	if err := s.reconcile(ctx, athleteID, activities); err != nil {
		return nil, err
	}

	// Zero fetched activities is still success: state and watermark advance
	if err := s.store.FinishSyncSuccess(ctx, athleteID, s.now()); err != nil {
		return nil, fmt.Errorf("recording sync success: %w", err)
	}

	total, err := s.store.CountActivities(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("counting activities: %w", err)
	}

	return &SyncResult{Synced: len(activities), Total: total}, nil
}

// reconcile projects fetched activities into local storage: a batch upsert
// of the activities themselves, then the training-log projection. The
// projection is display data only, so its failures are logged and
// swallowed rather than failing the attempt.
func (s *SyncService) reconcile(ctx context.Context, athleteID string, activities []strava.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	records := make([]*store.Activity, len(activities))
	for i := range activities {
		records[i] = mapActivity(athleteID, &activities[i])
	}

	if err := s.store.UpsertActivities(ctx, records); err != nil {
		return fmt.Errorf("upserting activities: %w", err)
	}

	for _, rec := range records {
		entry := deriveTrainingLogEntry(rec)
		if err := s.store.UpsertTrainingLogEntry(ctx, entry); err != nil {
			s.logger.Warn("upserting training log entry",
				zap.String("athlete_id", athleteID),
				zap.Int64("strava_activity_id", rec.StravaActivityID),
				zap.Error(err))
		}
	}

	return nil
}

// failureMessage renders an attempt failure as the actionable text stored
// in last_error and shown to the athlete.
func failureMessage(err error) string {
	var authErr *strava.AuthError
	if errors.As(err, &authErr) {
		return fmt.Sprintf("strava authorization was rejected, reconnect required: %v", err)
	}
	var apiErr *strava.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("strava is unavailable, try again later: %v", err)
	}
	return err.Error()
}

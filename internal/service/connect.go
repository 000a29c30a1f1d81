package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stridesync/internal/store"
	"stridesync/internal/strava"
)

// stateTTL is how long an issued OAuth state token stays redeemable
const stateTTL = 10 * time.Minute

// ConnectService manages the lifecycle of an athlete's Strava connection
type ConnectService struct {
	store  *store.Store
	client *strava.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewConnectService creates a connect service
func NewConnectService(st *store.Store, client *strava.Client, logger *zap.Logger) *ConnectService {
	return &ConnectService{
		store:  st,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// ConnectResult identifies the accounts joined by a completed OAuth exchange
type ConnectResult struct {
	AthleteID       string
	StravaAthleteID int64
}

// InitiateConnect begins the OAuth flow for an athlete. The returned URL
// carries an opaque single-use state token bound to the athlete, so the
// eventual callback can be attributed without trusting its query string.
func (s *ConnectService) InitiateConnect(ctx context.Context, athleteID string) (string, error) {
	state := uuid.NewString()

	if err := s.store.SaveOAuthState(ctx, state, athleteID, s.now().Add(stateTTL)); err != nil {
		return "", fmt.Errorf("saving oauth state: %w", err)
	}

	// Opportunistic cleanup; stale states are harmless but pile up
	if err := s.store.CleanupExpiredOAuthStates(ctx, s.now()); err != nil {
		s.logger.Warn("cleaning up expired oauth states", zap.Error(err))
	}

	url, err := s.client.AuthCodeURL(state)
	if err != nil {
		return "", err
	}

	s.logger.Info("initiated strava connect", zap.String("athlete_id", athleteID))
	return url, nil
}

// CompleteConnect finishes the OAuth flow: it resolves the state token to
// the initiating athlete, exchanges the code, and persists identity,
// credentials and an initial pending sync state.
func (s *ConnectService) CompleteConnect(ctx context.Context, code, state, scope string) (*ConnectResult, error) {
	athleteID, err := s.store.ConsumeOAuthState(ctx, state, s.now())
	if err != nil {
		return nil, fmt.Errorf("resolving oauth state: %w", err)
	}

	res, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpsertIdentity(ctx, &store.AthleteIdentity{
		AthleteID:       athleteID,
		StravaAthleteID: res.Athlete.ID,
		Username:        res.Athlete.Username,
		Firstname:       res.Athlete.Firstname,
		Lastname:        res.Athlete.Lastname,
		ProfileMedium:   res.Athlete.ProfileMedium,
		Scope:           scope,
	}); err != nil {
		return nil, fmt.Errorf("saving athlete identity: %w", err)
	}

	if err := s.store.SaveCredentials(ctx, &store.Credential{
		AthleteID:    athleteID,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresAt:    res.Tokens.ExpiresAt,
		TokenType:    res.Tokens.TokenType,
	}); err != nil {
		return nil, fmt.Errorf("saving credentials: %w", err)
	}

	if err := s.store.InitSyncState(ctx, athleteID); err != nil {
		return nil, fmt.Errorf("initializing sync state: %w", err)
	}

	s.logger.Info("strava connected",
		zap.String("athlete_id", athleteID),
		zap.Int64("strava_athlete_id", res.Athlete.ID))

	return &ConnectResult{
		AthleteID:       athleteID,
		StravaAthleteID: res.Athlete.ID,
	}, nil
}

// Disconnect removes the athlete's OAuth credentials. Identity, sync
// history and stored activities are deliberately retained.
func (s *ConnectService) Disconnect(ctx context.Context, athleteID string) error {
	if err := s.store.DeleteCredentials(ctx, athleteID); err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}

	s.logger.Info("strava disconnected", zap.String("athlete_id", athleteID))
	return nil
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_SaveGetDelete(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetCredentials(ctx, "athlete-1")
	assert.ErrorIs(t, err, ErrNotConnected)

	expires := time.Now().Add(6 * time.Hour).Truncate(time.Second)
	cred := &Credential{
		AthleteID:    "athlete-1",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    expires,
		TokenType:    "Bearer",
	}
	require.NoError(t, s.SaveCredentials(ctx, cred))

	got, err := s.GetCredentials(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, "at-1", got.AccessToken)
	assert.Equal(t, "rt-1", got.RefreshToken)
	assert.Equal(t, expires.Unix(), got.ExpiresAt.Unix())
	assert.Equal(t, "Bearer", got.TokenType)

	ok, err := s.HasCredentials(ctx, "athlete-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteCredentials(ctx, "athlete-1"))
	_, err = s.GetCredentials(ctx, "athlete-1")
	assert.ErrorIs(t, err, ErrNotConnected)

	ok, err = s.HasCredentials(ctx, "athlete-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentials_RefreshReplacesTokenAndExpiryTogether(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	first := time.Unix(1700000000, 0)
	require.NoError(t, s.SaveCredentials(ctx, &Credential{
		AthleteID: "athlete-1", AccessToken: "at-1", RefreshToken: "rt-1",
		ExpiresAt: first, TokenType: "Bearer",
	}))

	second := time.Unix(1700021600, 0)
	require.NoError(t, s.SaveCredentials(ctx, &Credential{
		AthleteID: "athlete-1", AccessToken: "at-2", RefreshToken: "rt-2",
		ExpiresAt: second, TokenType: "Bearer",
	}))

	got, err := s.GetCredentials(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, "at-2", got.AccessToken)
	assert.Equal(t, "rt-2", got.RefreshToken)
	assert.Equal(t, second.Unix(), got.ExpiresAt.Unix())
}

func TestUpsertIdentity_ReconnectUpdatesInPlace(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetIdentity(ctx, "athlete-1")
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	require.NoError(t, s.UpsertIdentity(ctx, &AthleteIdentity{
		AthleteID:       "athlete-1",
		StravaAthleteID: 98765,
		Username:        "runner",
		Firstname:       "Ada",
		Scope:           "read,activity:read_all",
	}))

	// reconnect with a different Strava account
	require.NoError(t, s.UpsertIdentity(ctx, &AthleteIdentity{
		AthleteID:       "athlete-1",
		StravaAthleteID: 11111,
		Username:        "runner2",
		Scope:           "read,activity:read_all,profile:read_all",
	}))

	got, err := s.GetIdentity(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, int64(11111), got.StravaAthleteID)
	assert.Equal(t, "runner2", got.Username)
	assert.Equal(t, "read,activity:read_all,profile:read_all", got.Scope)

	var count int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM athlete_identities WHERE athlete_id = ?`, "athlete-1",
	).Scan(&count))
	assert.Equal(t, 1, count, "at most one identity per athlete")
}

func TestOAuthState_ConsumeOnce(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SaveOAuthState(ctx, "state-abc", "athlete-1", now.Add(10*time.Minute)))

	athleteID, err := s.ConsumeOAuthState(ctx, "state-abc", now)
	require.NoError(t, err)
	assert.Equal(t, "athlete-1", athleteID)

	// single-use: a replayed state must fail
	_, err = s.ConsumeOAuthState(ctx, "state-abc", now)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestOAuthState_Expired(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SaveOAuthState(ctx, "state-old", "athlete-1", now.Add(-time.Minute)))

	_, err := s.ConsumeOAuthState(ctx, "state-old", now)
	assert.ErrorIs(t, err, ErrStateNotFound)

	require.NoError(t, s.CleanupExpiredOAuthStates(ctx, now))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM oauth_states`).Scan(&count))
	assert.Zero(t, count)
}

func TestOAuthState_Unknown(t *testing.T) {
	s := NewTestStore(t)

	_, err := s.ConsumeOAuthState(context.Background(), "never-issued", time.Now())
	assert.ErrorIs(t, err, ErrStateNotFound)
}

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSyncState(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))

	state, err := s.GetSyncState(ctx, "athlete-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, SyncPending, state.Status)
	assert.Nil(t, state.LastSyncedAt)
	assert.Nil(t, state.LastError)
	assert.Zero(t, state.ErrorCount)
	assert.False(t, state.InitialBackfillCompleted)
}

func TestInitSyncState_ReconnectKeepsHistory(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))
	_, err := s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	completed := time.Now().Truncate(time.Second)
	require.NoError(t, s.FinishSyncSuccess(ctx, "athlete-1", completed))

	// Disconnect + reconnect re-inits; the watermark must survive
	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))

	state, err := s.GetSyncState(ctx, "athlete-1")
	require.NoError(t, err)
	require.NotNil(t, state.LastSyncedAt)
	assert.Equal(t, completed.Unix(), state.LastSyncedAt.Unix())
}

func TestGetSyncState_NeverConnected(t *testing.T) {
	s := NewTestStore(t)

	state, err := s.GetSyncState(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestBeginSync_RejectsSecondAttempt(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))

	state, err := s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, SyncInProgress, state.Status)

	_, err = s.BeginSync(ctx, "athlete-1")
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestBeginSync_AllowedFromTerminalStates(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))

	// completed -> in_progress
	_, err := s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	require.NoError(t, s.FinishSyncSuccess(ctx, "athlete-1", time.Now()))
	_, err = s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)

	// failed -> in_progress
	require.NoError(t, s.FinishSyncFailure(ctx, "athlete-1", "upstream error"))
	_, err = s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
}

func TestBeginSync_ConcurrentCallersOneWins(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.BeginSync(ctx, "athlete-1")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		default:
			assert.ErrorIs(t, err, ErrSyncInProgress)
		}
	}
	assert.Equal(t, 1, won, "exactly one caller must reach in_progress")
}

func TestBeginSync_WatermarkSnapshotIsFixed(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))
	_, err := s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	first := time.Unix(1700000000, 0)
	require.NoError(t, s.FinishSyncSuccess(ctx, "athlete-1", first))

	state, err := s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	require.NotNil(t, state.LastSyncedAt)
	assert.Equal(t, first.Unix(), state.LastSyncedAt.Unix())
}

func TestFinishSyncSuccess(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))
	_, err := s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	require.NoError(t, s.FinishSyncFailure(ctx, "athlete-1", "boom"))
	_, err = s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)

	completed := time.Unix(1700000000, 0)
	require.NoError(t, s.FinishSyncSuccess(ctx, "athlete-1", completed))

	state, err := s.GetSyncState(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, SyncCompleted, state.Status)
	require.NotNil(t, state.LastSyncedAt)
	assert.Equal(t, completed.Unix(), state.LastSyncedAt.Unix())
	assert.Nil(t, state.LastError)
	assert.Zero(t, state.ErrorCount)
	assert.True(t, state.InitialBackfillCompleted)
}

func TestFinishSyncSuccess_WatermarkNeverMovesBackward(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))

	later := time.Unix(1700005000, 0)
	earlier := time.Unix(1700000000, 0)

	_, err := s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	require.NoError(t, s.FinishSyncSuccess(ctx, "athlete-1", later))

	_, err = s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	require.NoError(t, s.FinishSyncSuccess(ctx, "athlete-1", earlier))

	state, err := s.GetSyncState(ctx, "athlete-1")
	require.NoError(t, err)
	require.NotNil(t, state.LastSyncedAt)
	assert.Equal(t, later.Unix(), state.LastSyncedAt.Unix())
}

func TestFinishSyncFailure_PreservesWatermark(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSyncState(ctx, "athlete-1"))
	_, err := s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	watermark := time.Unix(1700000000, 0)
	require.NoError(t, s.FinishSyncSuccess(ctx, "athlete-1", watermark))

	_, err = s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	require.NoError(t, s.FinishSyncFailure(ctx, "athlete-1", "strava API error (status 500)"))

	state, err := s.GetSyncState(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, SyncFailed, state.Status)
	require.NotNil(t, state.LastSyncedAt)
	assert.Equal(t, watermark.Unix(), state.LastSyncedAt.Unix())
	require.NotNil(t, state.LastError)
	assert.Contains(t, *state.LastError, "status 500")
	assert.Equal(t, 1, state.ErrorCount)

	// a second failure keeps counting
	_, err = s.BeginSync(ctx, "athlete-1")
	require.NoError(t, err)
	require.NoError(t, s.FinishSyncFailure(ctx, "athlete-1", "again"))
	state, err = s.GetSyncState(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, 2, state.ErrorCount)
}

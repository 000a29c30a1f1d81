package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stridesync/internal/store"
	"stridesync/internal/strava"
)

// exchangeServer serves the token endpoint with the athlete profile
// embedded, the way Strava answers an authorization-code exchange.
func exchangeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "at-1",
			"refresh_token": "rt-1",
			"token_type": "Bearer",
			"expires_in": 21600,
			"athlete": {
				"id": 424242,
				"username": "ada",
				"firstname": "Ada",
				"lastname": "Lovelace",
				"profile_medium": "https://example.com/ada-medium.jpg"
			}
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newConnectService(t *testing.T, st *store.Store, tokenURL string) *ConnectService {
	t.Helper()
	client := strava.NewClient(strava.Config{
		ClientID:     "12345",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost/api/strava/callback",
		TokenURL:     tokenURL,
	})
	return NewConnectService(st, client, zap.NewNop())
}

// stateFrom pulls the state token out of an authorization URL
func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestInitiateConnect_IssuesBoundState(t *testing.T) {
	st := store.NewTestStore(t)
	svc := newConnectService(t, st, "http://unused.invalid/token")
	ctx := context.Background()

	authURL, err := svc.InitiateConnect(ctx, "athlete-1")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "12345", q.Get("client_id"))
	assert.Equal(t, "http://localhost/api/strava/callback", q.Get("redirect_uri"))

	// the state is opaque and resolves back to the initiating athlete
	state := q.Get("state")
	require.NotEmpty(t, state)
	assert.NotContains(t, state, "athlete-1")

	athleteID, err := st.ConsumeOAuthState(ctx, state, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "athlete-1", athleteID)
}

func TestInitiateConnect_StatesAreUnique(t *testing.T) {
	st := store.NewTestStore(t)
	svc := newConnectService(t, st, "http://unused.invalid/token")
	ctx := context.Background()

	first, err := svc.InitiateConnect(ctx, "athlete-1")
	require.NoError(t, err)
	second, err := svc.InitiateConnect(ctx, "athlete-1")
	require.NoError(t, err)

	assert.NotEqual(t, stateFrom(t, first), stateFrom(t, second))
}

func TestCompleteConnect(t *testing.T) {
	st := store.NewTestStore(t)
	srv := exchangeServer(t)
	svc := newConnectService(t, st, srv.URL)
	ctx := context.Background()

	authURL, err := svc.InitiateConnect(ctx, "athlete-1")
	require.NoError(t, err)
	state := stateFrom(t, authURL)

	res, err := svc.CompleteConnect(ctx, "good-code", state, "read,activity:read_all")
	require.NoError(t, err)
	assert.Equal(t, "athlete-1", res.AthleteID)
	assert.Equal(t, int64(424242), res.StravaAthleteID)

	identity, err := st.GetIdentity(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, int64(424242), identity.StravaAthleteID)
	assert.Equal(t, "ada", identity.Username)
	assert.Equal(t, "read,activity:read_all", identity.Scope)

	cred, err := st.GetCredentials(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, "at-1", cred.AccessToken)
	assert.Equal(t, "rt-1", cred.RefreshToken)
	assert.True(t, cred.ExpiresAt.After(time.Now()))

	syncState, err := st.GetSyncState(ctx, "athlete-1")
	require.NoError(t, err)
	require.NotNil(t, syncState)
	assert.Equal(t, store.SyncPending, syncState.Status)
	assert.Nil(t, syncState.LastSyncedAt)
}

func TestCompleteConnect_StateIsSingleUse(t *testing.T) {
	st := store.NewTestStore(t)
	srv := exchangeServer(t)
	svc := newConnectService(t, st, srv.URL)
	ctx := context.Background()

	authURL, err := svc.InitiateConnect(ctx, "athlete-1")
	require.NoError(t, err)
	state := stateFrom(t, authURL)

	_, err = svc.CompleteConnect(ctx, "good-code", state, "read")
	require.NoError(t, err)

	_, err = svc.CompleteConnect(ctx, "good-code", state, "read")
	assert.ErrorIs(t, err, store.ErrStateNotFound)
}

func TestCompleteConnect_UnknownState(t *testing.T) {
	st := store.NewTestStore(t)
	srv := exchangeServer(t)
	svc := newConnectService(t, st, srv.URL)

	_, err := svc.CompleteConnect(context.Background(), "good-code", "never-issued", "read")
	assert.ErrorIs(t, err, store.ErrStateNotFound)
}

func TestCompleteConnect_RejectedCode(t *testing.T) {
	st := store.NewTestStore(t)
	srv := exchangeServer(t)
	svc := newConnectService(t, st, srv.URL)
	ctx := context.Background()

	authURL, err := svc.InitiateConnect(ctx, "athlete-1")
	require.NoError(t, err)
	state := stateFrom(t, authURL)

	_, err = svc.CompleteConnect(ctx, "bad-code", state, "read")
	require.Error(t, err)
	var authErr *strava.AuthError
	assert.ErrorAs(t, err, &authErr)

	// nothing connected: the failed exchange leaves no credentials behind
	connected, err := st.HasCredentials(ctx, "athlete-1")
	require.NoError(t, err)
	assert.False(t, connected)
}

func TestCompleteConnect_ReconnectReplacesCredentials(t *testing.T) {
	st := store.NewTestStore(t)
	srv := exchangeServer(t)
	svc := newConnectService(t, st, srv.URL)
	ctx := context.Background()

	authURL, err := svc.InitiateConnect(ctx, "athlete-1")
	require.NoError(t, err)
	_, err = svc.CompleteConnect(ctx, "good-code", stateFrom(t, authURL), "read")
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(ctx, "athlete-1"))

	authURL, err = svc.InitiateConnect(ctx, "athlete-1")
	require.NoError(t, err)
	_, err = svc.CompleteConnect(ctx, "good-code", stateFrom(t, authURL), "read,activity:read_all")
	require.NoError(t, err)

	cred, err := st.GetCredentials(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, "at-1", cred.AccessToken)

	identity, err := st.GetIdentity(ctx, "athlete-1")
	require.NoError(t, err)
	assert.Equal(t, "read,activity:read_all", identity.Scope)
}

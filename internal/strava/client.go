package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultAuthURL is Strava's OAuth authorization endpoint
	DefaultAuthURL = "https://www.strava.com/oauth/authorize"
	// DefaultTokenURL is Strava's OAuth token endpoint
	DefaultTokenURL = "https://www.strava.com/oauth/token"
	// DefaultBaseURL is the Strava REST API base
	DefaultBaseURL = "https://www.strava.com/api/v3"

	// DefaultPerPage is the page size for activity fetches (Strava's max)
	DefaultPerPage = 100
	// DefaultMaxPages caps a single fetch run so a misbehaving upstream
	// cannot keep us paginating forever
	DefaultMaxPages = 100

	// refreshBuffer is how long before the recorded expiry a token is
	// already treated as expired, to tolerate clock skew and request
	// latency. The boundary is inclusive: exactly refreshBuffer left
	// means refresh now.
	refreshBuffer = 300 * time.Second
)

// Scopes requested during authorization (Strava uses comma-separated scopes)
var Scopes = []string{"read,activity:read_all,profile:read_all"}

// Config holds everything a Client needs. Base URLs and the HTTP client are
// overridable so tests can point at a fake provider.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL  string
	TokenURL string
	BaseURL  string

	HTTPClient *http.Client

	// PerPage and MaxPages bound FetchAllSince; zero means the defaults
	PerPage  int
	MaxPages int

	// Now is the clock used for the token expiry check; nil means time.Now
	Now func() time.Time
}

// Client talks to Strava's OAuth and REST surface. It holds no persistent
// state; token storage is the caller's job.
type Client struct {
	cfg         Config
	oauth       *oauth2.Config
	httpClient  *http.Client
	rateLimiter *RateLimiter
	now         func() time.Time
}

// NewClient creates a Strava client from explicit configuration
func NewClient(cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURI,
			Scopes:      Scopes,
		},
		httpClient:  cfg.HTTPClient,
		rateLimiter: NewRateLimiter(),
		now:         now,
	}
}

// AuthCodeURL builds the authorization redirect URL carrying the caller's
// opaque state value. The state binds the eventual callback to the athlete
// who initiated the connect.
func (c *Client) AuthCodeURL(state string) (string, error) {
	if c.cfg.ClientID == "" || c.cfg.RedirectURI == "" {
		return "", ErrNotConfigured
	}
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto")), nil
}

// ExchangeCode performs the one-shot exchange of an authorization code for
// an initial token set. Strava includes the athlete profile in the token
// response; it is returned alongside the tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*ConnectResult, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", asAuthError(err))
	}

	return &ConnectResult{
		Tokens:  tokenSetFrom(token),
		Athlete: athleteFromToken(token),
	}, nil
}

// RefreshIfExpired returns the given token set unchanged while it is still
// comfortably valid, and otherwise performs a refresh exchange. The second
// return value reports whether a refresh happened; it is the caller's
// signal to persist the new credentials.
//
// A rejected refresh (revoked access) returns an *AuthError and must
// propagate: the connection is broken until the athlete reconnects.
func (c *Client) RefreshIfExpired(ctx context.Context, ts TokenSet) (TokenSet, bool, error) {
	if c.now().Before(ts.ExpiresAt.Add(-refreshBuffer)) {
		return ts, false, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	src := c.oauth.TokenSource(ctx, &oauth2.Token{
		RefreshToken: ts.RefreshToken,
	})
	newToken, err := src.Token()
	if err != nil {
		return TokenSet{}, false, fmt.Errorf("refreshing token: %w", asAuthError(err))
	}

	return tokenSetFrom(newToken), true, nil
}

// PageParams selects one page of the activities listing
type PageParams struct {
	After   *time.Time // only activities starting strictly after this instant
	Before  *time.Time
	Page    int
	PerPage int
}

// FetchPage retrieves a single page of activities for the token's athlete
func (c *Client) FetchPage(ctx context.Context, accessToken string, p PageParams) ([]Activity, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	if p.After != nil {
		params.Set("after", strconv.FormatInt(p.After.Unix(), 10))
	}
	if p.Before != nil {
		params.Set("before", strconv.FormatInt(p.Before.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(p.Page))
	params.Set("per_page", strconv.Itoa(p.PerPage))

	resp, err := c.get(ctx, accessToken, "/athlete/activities", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding activities: %w", err)
	}

	return activities, nil
}

// FetchAllSince retrieves every activity after the given instant (all
// history when after is nil), walking pages until a short page signals the
// end or the page ceiling is reached. Provider order is preserved; this is
// a pure read and mutates nothing.
func (c *Client) FetchAllSince(ctx context.Context, accessToken string, after *time.Time) ([]Activity, error) {
	var all []Activity

	for page := 1; page <= c.cfg.MaxPages; page++ {
		activities, err := c.FetchPage(ctx, accessToken, PageParams{
			After:   after,
			Page:    page,
			PerPage: c.cfg.PerPage,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		all = append(all, activities...)

		if len(activities) < c.cfg.PerPage {
			break // last page
		}
	}

	return all, nil
}

// RateLimitUsage reports the most recently observed Strava quota usage
func (c *Client) RateLimitUsage() (shortUsage, dailyUsage int) {
	return c.rateLimiter.Usage()
}

func (c *Client) get(ctx context.Context, accessToken, path string, params url.Values) (*http.Response, error) {
	reqURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

func tokenSetFrom(token *oauth2.Token) TokenSet {
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		TokenType:    tokenType,
	}
}

// athleteFromToken decodes the athlete object Strava embeds in its token
// responses. A missing or malformed athlete yields the zero value.
func athleteFromToken(token *oauth2.Token) Athlete {
	var athlete Athlete
	raw, ok := token.Extra("athlete").(map[string]interface{})
	if !ok {
		return athlete
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return athlete
	}
	_ = json.Unmarshal(data, &athlete)
	return athlete
}

package strava

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ErrNotConfigured is returned when required client credentials are missing
var ErrNotConfigured = errors.New("strava client not configured: client id and redirect uri are required")

// AuthError is a rejection from Strava's OAuth endpoints (code exchange or
// token refresh). It carries the raw provider response for diagnostics.
// A connection that hits this error is broken until the athlete reconnects.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("strava auth rejected (status %d): %s", e.StatusCode, e.Body)
}

// APIError is a non-auth failure from the Strava REST API: rate limits,
// 5xx responses, and other non-2xx statuses. Retryable on a later sync.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("strava API error (status %d): %s", e.StatusCode, e.Body)
}

// asAuthError converts oauth2 retrieval failures into an AuthError so
// callers can distinguish a provider rejection from a transport failure.
func asAuthError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &AuthError{StatusCode: status, Body: string(re.Body)}
	}
	return err
}

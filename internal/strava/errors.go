package strava

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from Strava.
type APIError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("strava %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// IsRateLimited reports whether err is a Strava 429.
func IsRateLimited(err error) bool {
	return statusIs(err, http.StatusTooManyRequests)
}

// IsUnauthorized reports whether Strava rejected the access token.
func IsUnauthorized(err error) bool {
	return statusIs(err, http.StatusUnauthorized)
}

func statusIs(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}

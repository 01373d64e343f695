// Package strava provides the HTTP client for the Strava v3 API: the
// authenticated athlete profile, the activity list, and the OAuth token
// endpoints.
//
// The bearer token is passed explicitly on every call; the client holds no
// credential state. Rate limiting is handled via a token bucket limiter.
package strava

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/daldosso/RunPA-backend-2025/internal/metrics"
)

// DefaultBaseURL is the Strava v3 API root.
const DefaultBaseURL = "https://www.strava.com/api/v3"

const (
	defaultPerPage = 100
	maxPerPage     = 200
)

// Client is the shared HTTP client for the Strava endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	perPage    int
	maxPages   int
	logger     *slog.Logger
}

// NewClient creates a Strava client with rate limiting. maxPages bounds
// ListAllActivities; zero means a single page.
func NewClient(baseURL string, requestsPerMinute, maxPages int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 100
	}
	if maxPages <= 0 {
		maxPages = 1
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 5),
		perPage:    defaultPerPage,
		maxPages:   maxPages,
		logger:     logger,
	}
}

// GetAthlete returns the profile of the athlete owning token.
func (c *Client) GetAthlete(ctx context.Context, token string) (Athlete, error) {
	var athlete Athlete
	if err := c.get(ctx, token, "/athlete", nil, &athlete); err != nil {
		return Athlete{}, err
	}
	if athlete.ID == 0 {
		return Athlete{}, fmt.Errorf("strava athlete response missing id")
	}
	return athlete, nil
}

// ListActivities returns one page of the athlete's activities, newest first.
func (c *Client) ListActivities(ctx context.Context, token string, page, perPage int) ([]RawActivity, error) {
	if perPage <= 0 {
		perPage = c.perPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	params.Set("per_page", strconv.Itoa(perPage))

	var activities []RawActivity
	if err := c.get(ctx, token, "/athlete/activities", params, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// ListAllActivities pages through the athlete's activities until a short
// page is returned or the configured page limit is reached.
func (c *Client) ListAllActivities(ctx context.Context, token string) ([]RawActivity, error) {
	var all []RawActivity
	for page := 1; page <= c.maxPages; page++ {
		activities, err := c.ListActivities(ctx, token, page, c.perPage)
		if err != nil {
			return nil, fmt.Errorf("list activities page %d: %w", page, err)
		}
		all = append(all, activities...)
		if len(activities) < c.perPage {
			break
		}
	}
	c.logger.Debug("Fetched Strava activities", "count", len(all))
	return all, nil
}

// get performs a rate-limited, authenticated GET against a Strava endpoint.
func (c *Client) get(ctx context.Context, token, path string, params url.Values, target interface{}) error {
	if token == "" {
		return fmt.Errorf("strava %s: missing access token", path)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(path, "error").Inc()
		return fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{Path: path, StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

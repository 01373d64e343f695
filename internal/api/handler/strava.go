package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/daldosso/RunPA-backend-2025/internal/api/respond"
	"github.com/daldosso/RunPA-backend-2025/internal/ingest"
	"github.com/daldosso/RunPA-backend-2025/internal/model"
	"github.com/daldosso/RunPA-backend-2025/internal/strava"
)

// DefaultRedirectURI is the mobile app deep link that receives the code.
const DefaultRedirectURI = "com.adaldosso.runpa://oauthredirect"

// maxBodyBytes bounds token relay request bodies.
const maxBodyBytes = 64 << 10

// StravaCallback bounces the authorization code to the mobile app.
// @Summary OAuth callback
// @Description Redirects the Strava authorization code to the app's deep link.
// @Tags strava
// @Param code query string true "Authorization code"
// @Success 302
// @Failure 400 {object} respond.ErrorResponse
// @Router /strava/callback [get]
func (h *Handler) StravaCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respond.Error(w, http.StatusBadRequest, "MISSING_CODE", "Authorization code is missing")
		return
	}

	target := DefaultRedirectURI
	if h.cfg != nil && h.cfg.StravaRedirectURI != "" {
		target = h.cfg.StravaRedirectURI
	}
	h.logger.Info("Redirecting OAuth code to app", "target", target)
	http.Redirect(w, r, target+"?code="+url.QueryEscape(code), http.StatusFound)
}

type exchangeRequest struct {
	Code string `json:"code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ExchangeToken trades an authorization code for tokens.
// @Summary Exchange authorization code
// @Description Exchanges a Strava authorization code for access and refresh tokens.
// @Tags strava
// @Accept json
// @Produce json
// @Param body body exchangeRequest true "Authorization code"
// @Success 200 {object} strava.TokenResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /strava/exchange_token [post]
func (h *Handler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		respond.Error(w, http.StatusBadRequest, "MISSING_CODE", "Authorization code is missing")
		return
	}
	if !h.oauthReady(w) {
		return
	}

	tok, err := h.oauth.Exchange(r.Context(), req.Code)
	if err != nil {
		h.writeInternal(w, http.StatusBadGateway, "EXCHANGE_FAILED", "Failed to exchange token", err)
		return
	}
	respond.JSON(w, http.StatusOK, tok)
}

// RefreshToken trades a refresh token for a new access token.
// @Summary Refresh access token
// @Description Exchanges a Strava refresh token for a new access token.
// @Tags strava
// @Accept json
// @Produce json
// @Param body body refreshRequest true "Refresh token"
// @Success 200 {object} strava.TokenResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /strava/refresh_token [post]
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		respond.Error(w, http.StatusBadRequest, "MISSING_REFRESH_TOKEN", "Refresh token is missing")
		return
	}
	if !h.oauthReady(w) {
		return
	}

	tok, err := h.oauth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeInternal(w, http.StatusBadGateway, "REFRESH_FAILED", "Failed to refresh token", err)
		return
	}
	respond.JSON(w, http.StatusOK, tok)
}

// SyncActivities fetches the caller's Strava activities and ingests them.
// @Summary Sync activities
// @Description Fetches the bearer's athlete profile and activities from Strava, upserts them, and returns the stored activities.
// @Tags strava
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {array} model.Activity
// @Failure 401 {object} respond.ErrorResponse
// @Failure 429 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /strava/activities [get]
func (h *Handler) SyncActivities(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "MISSING_TOKEN", "Missing or invalid Authorization header")
		return
	}
	ctx := r.Context()

	athlete, err := h.strava.GetAthlete(ctx, token)
	if err != nil {
		h.writeUpstream(w, err)
		return
	}
	raw, err := h.strava.ListAllActivities(ctx, token)
	if err != nil {
		h.writeUpstream(w, err)
		return
	}

	result, err := h.ingestor.Ingest(ctx, ingest.ProfileFromStrava(athlete), raw)
	// Anything written invalidates the cached views, even on failure.
	h.cache.Invalidate(analyticsKeyPrefix)
	if err != nil {
		h.writeInternal(w, http.StatusInternalServerError, "INGEST_FAILED", "Failed to store activities", err)
		return
	}

	activities := result.Activities
	if activities == nil {
		activities = []model.Activity{}
	}
	respond.Sync(w, result.Upserted, result.Failed, activities)
}

func (h *Handler) oauthReady(w http.ResponseWriter) bool {
	if h.oauth == nil || !h.oauth.Configured() {
		respond.Error(w, http.StatusServiceUnavailable, "OAUTH_NOT_CONFIGURED", "Strava client credentials are not configured")
		return false
	}
	return true
}

// writeUpstream maps Strava errors onto statuses without echoing the
// upstream body.
func (h *Handler) writeUpstream(w http.ResponseWriter, err error) {
	switch {
	case strava.IsUnauthorized(err):
		h.logger.Warn("Strava rejected token", "error", err)
		respond.Error(w, http.StatusUnauthorized, "UPSTREAM_UNAUTHORIZED", "Strava rejected the access token")
	case strava.IsRateLimited(err):
		h.logger.Warn("Strava rate limit reached", "error", err)
		w.Header().Set("Retry-After", "900")
		respond.Error(w, http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED", "Strava rate limit reached")
	default:
		h.writeInternal(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to fetch activities", err)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		respond.Error(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON object")
		return false
	}
	return true
}

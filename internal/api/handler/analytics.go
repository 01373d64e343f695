package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/daldosso/RunPA-backend-2025/internal/api/respond"
	"github.com/daldosso/RunPA-backend-2025/internal/cache"
)

const analyticsKeyPrefix = "analytics:"

// GetAthletes returns the per-athlete roll-ups.
// @Summary Athlete roll-ups
// @Description Total distance (km, 2 decimals) and most recent activity per athlete.
// @Tags analytics
// @Produce json
// @Success 200 {array} analytics.AthleteRollup
// @Success 304
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/athletes [get]
func (h *Handler) GetAthletes(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, "rollups", cache.TTLRollups, func(ctx context.Context) (interface{}, error) {
		return h.analytics.Rollups(ctx)
	})
}

// GetFarthest returns each athlete's activity farthest from the reference point.
// @Summary Farthest activities
// @Description Per athlete, the activity that started farthest from the reference point (unrounded km).
// @Tags analytics
// @Produce json
// @Success 200 {array} analytics.FarthestActivity
// @Success 304
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/athletes/farthest [get]
func (h *Handler) GetFarthest(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, "farthest", cache.TTLFarthest, func(ctx context.Context) (interface{}, error) {
		return h.analytics.Farthest(ctx)
	})
}

// GetLeaderboards returns the three top-5 rankings with masked last names.
// @Summary Leaderboards
// @Description Top 5 athletes by total distance, longest activity and activity count.
// @Tags analytics
// @Produce json
// @Success 200 {object} analytics.Leaderboards
// @Success 304
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/leaderboards [get]
func (h *Handler) GetLeaderboards(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, "leaderboards", cache.TTLLeaderboards, func(ctx context.Context) (interface{}, error) {
		return h.analytics.Leaderboards(ctx)
	})
}

// serveView answers from cache when possible, otherwise computes, encodes
// and caches the view. A view whose computation overlapped a sync is still
// served but not cached.
func (h *Handler) serveView(
	w http.ResponseWriter,
	r *http.Request,
	view string,
	ttl time.Duration,
	compute func(ctx context.Context) (interface{}, error),
) {
	cacheKey := analyticsKeyPrefix + view
	ifNoneMatch := r.Header.Get("If-None-Match")

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		respond.View{Body: data, ETag: etag, MaxAge: ttl, Status: respond.CacheHit}.Serve(w, ifNoneMatch)
		return
	}

	gen := h.cache.Generation()
	v, err := compute(r.Context())
	if err != nil {
		h.writeInternal(w, http.StatusInternalServerError, "ANALYTICS_FAILED", "Failed to compute "+view, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.writeInternal(w, http.StatusInternalServerError, "ENCODE_FAILED", "Failed to encode "+view, err)
		return
	}

	etag, stored := h.cache.SetAt(cacheKey, data, ttl, gen)
	status := respond.CacheMiss
	if !stored {
		status = respond.CacheBypass
		if h.cache.Enabled() {
			h.logger.Debug("Analytics view superseded by a sync, not cached", "view", view)
		}
	}
	respond.View{Body: data, ETag: etag, MaxAge: ttl, Status: status}.Serve(w, ifNoneMatch)
}

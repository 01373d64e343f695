// Package respond writes the API's JSON payloads: encoded analytics views
// with their validators, Strava sync results and the error envelope.
package respond

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/daldosso/RunPA-backend-2025/internal/cache"
)

// CacheStatus is reported to clients in the X-Cache header.
type CacheStatus string

const (
	CacheHit    CacheStatus = "HIT"
	CacheMiss   CacheStatus = "MISS"
	CacheBypass CacheStatus = "BYPASS" // caching disabled, or result superseded by a sync
)

// ErrorBody carries a machine-readable code and a human message.
// Detail is only filled outside production.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse is the envelope of every API error.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// View is an encoded analytics payload ready to be served.
type View struct {
	Body   []byte
	ETag   string
	MaxAge time.Duration
	Status CacheStatus
}

// Serve writes the view, or a bare 304 when ifNoneMatch already names
// its ETag. Validators and freshness headers go out in both cases.
func (v View) Serve(w http.ResponseWriter, ifNoneMatch string) {
	h := w.Header()
	h.Set("ETag", v.ETag)
	h.Set("X-Cache", string(v.Status))
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(v.MaxAge.Seconds())))
	h.Set("Vary", "Accept-Encoding")
	if cache.CheckETagMatch(ifNoneMatch, v.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(v.Body)
}

// Sync writes the outcome of an ingestion run: counters in X-Ingest-*
// headers and the stored activities as the body.
func Sync(w http.ResponseWriter, upserted, failed int, activities interface{}) {
	w.Header().Set("X-Ingest-Upserted", strconv.Itoa(upserted))
	w.Header().Set("X-Ingest-Failed", strconv.Itoa(failed))
	JSON(w, http.StatusOK, activities)
}

// JSON encodes v as an uncached response.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error sends the error envelope without detail.
func Error(w http.ResponseWriter, status int, code, message string) {
	ErrorDetail(w, status, code, message, "")
}

// ErrorDetail sends the error envelope.
func ErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	JSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Detail: detail}})
}

package ingest

import (
	"fmt"
	"time"

	"github.com/daldosso/RunPA-backend-2025/internal/model"
)

// RecordResult is the outcome for one activity id.
type RecordResult struct {
	ActivityID int64  `json:"activity_id"`
	Success    bool   `json:"success"`
	Geocoded   bool   `json:"geocoded,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Result tracks what a single ingestion call wrote.
type Result struct {
	AthleteID int64
	// Activities holds the stored shape of every upserted activity, in
	// input order.
	Activities []model.Activity
	Records    []RecordResult
	Upserted   int
	Failed     int
	Geocoded   int
	Errors     []string
	Duration   time.Duration
}

// Report is the machine-readable form of a Result, with one record per
// activity that was attempted.
type Report struct {
	AthleteID  int64          `json:"athlete_id"`
	Upserted   int            `json:"upserted"`
	Failed     int            `json:"failed"`
	Geocoded   int            `json:"geocoded"`
	DurationMs int64          `json:"duration_ms"`
	Records    []RecordResult `json:"records"`
	Errors     []string       `json:"errors,omitempty"`
}

// Report returns the per-record outcome of the run.
func (r *Result) Report() Report {
	records := r.Records
	if records == nil {
		records = []RecordResult{}
	}
	return Report{
		AthleteID:  r.AthleteID,
		Upserted:   r.Upserted,
		Failed:     r.Failed,
		Geocoded:   r.Geocoded,
		DurationMs: r.Duration.Milliseconds(),
		Records:    records,
		Errors:     r.Errors,
	}
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"athlete=%d upserted=%d failed=%d geocoded=%d errors=%d duration=%s",
		r.AthleteID, r.Upserted, r.Failed, r.Geocoded, len(r.Errors),
		r.Duration.Round(time.Millisecond),
	)
}

package domain

import "time"

// SyncReport captures the outcome of one reconciliation cycle. Per-record
// failures are accumulated rather than aborting the cycle, so the report is
// the only place a caller can learn precisely what went wrong.
type SyncReport struct {
	ID                   string    `json:"id"`
	Trigger              string    `json:"trigger"` // "manual" | "scheduled" | "startup"
	Imported             int       `json:"imported"`
	SkippedDuplicates    int       `json:"skipped_duplicates"`
	MarkedComplete       int       `json:"marked_complete"`
	MarkCompleteFailures int       `json:"mark_complete_failures"`
	Errors               []string  `json:"errors,omitempty"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at"`
}

func (r *SyncReport) Touch() {
	if r == nil {
		return
	}
	r.FinishedAt = time.Now()
	if r.StartedAt.IsZero() {
		r.StartedAt = r.FinishedAt
	}
}

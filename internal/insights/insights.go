// Package insights turns a subject's event history into a short list of
// phrased observations via an external summarization step. The external call
// is expensive, so it runs behind the fingerprint gate: unchanged data returns
// the cached payload without leaving the process.
package insights

import (
	"context"
	"time"

	"github.com/pulselog-lab/pulselog/internal/core/series"
)

const (
	// MinSampleEvents is the minimum event count before summarization runs.
	MinSampleEvents = 5

	// DefaultMaxInsights bounds the returned list when config omits a cap.
	DefaultMaxInsights = 10

	// historyDays is the summarization lookback window.
	historyDays = 90
)

// WeeklySummary is the sole input contract of the external summarizer. It
// carries weekly buckets only — counts and averages, never raw per-event
// notes or metadata.
type WeeklySummary struct {
	SubjectID string              `json:"subject_id"`
	Weeks     []series.WeekBucket `json:"weeks"`
}

// Summarizer is the external language-model boundary. Implementations phrase
// the weekly summary as prose-wrapped structured records; the raw string is
// parsed defensively on this side.
type Summarizer interface {
	Summarize(ctx context.Context, summary WeeklySummary) (string, error)
}

// Insight is one structured observation returned by the summarizer. Items
// missing a title or body are dropped during parsing; no further validation
// happens before caching.
type Insight struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category,omitempty"`
}

// Response is the insight list for one subject. Status mirrors the analytics
// convention: below the sample minimum the response says so instead of
// erroring.
type Response struct {
	SubjectID  string     `json:"subject_id"`
	Status     string     `json:"status"`
	SampleSize int        `json:"sample_size"`
	MinSamples int        `json:"min_samples"`
	Cached     bool       `json:"cached"`
	ComputedAt *time.Time `json:"computed_at,omitempty"`
	Insights   []Insight  `json:"insights"`
}

// Response status values.
const (
	StatusOK               = "ok"
	StatusInsufficientData = "insufficient_data"
)

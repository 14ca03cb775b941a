package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pulselog-lab/pulselog/internal/core/score"
	"github.com/pulselog-lab/pulselog/internal/core/series"
	"github.com/pulselog-lab/pulselog/internal/core/streak"
)

// StreakResponse is the derived streak state for one subject.
type StreakResponse struct {
	SubjectID string        `json:"subject_id"`
	Period    string        `json:"period"`
	Streak    streak.Result `json:"streak"`
}

// WeeklyTrendResponse is the per-ISO-week trend for one subject.
type WeeklyTrendResponse struct {
	SubjectID string              `json:"subject_id"`
	Start     time.Time           `json:"start"`
	End       time.Time           `json:"end"`
	Weeks     []series.WeekBucket `json:"weeks"`
}

// RollingAverageResponse is the trailing-window average series.
type RollingAverageResponse struct {
	SubjectID  string                `json:"subject_id"`
	WindowDays int                   `json:"window_days"`
	Points     []series.RollingPoint `json:"points"`
}

// CalendarResponse is the monthly calendar for one subject.
type CalendarResponse struct {
	SubjectID string                 `json:"subject_id"`
	Calendar  series.MonthlyCalendar `json:"calendar"`
}

// HeatmapResponse is the trailing heatmap window.
type HeatmapResponse struct {
	SubjectID string               `json:"subject_id"`
	Days      int                  `json:"days"`
	Cells     []series.HeatmapCell `json:"cells"`
}

// ConsistencyResponse is the habit consistency composite score.
type ConsistencyResponse struct {
	SubjectID string          `json:"subject_id"`
	Score     score.Composite `json:"score"`
	Streak    streak.Result   `json:"streak"`
}

// BurnoutResponse is the mood burnout composite score.
// Status is "ok" or "insufficient_data"; Score is present only when "ok",
// so callers can render a friendly nudge instead of a failure page.
type BurnoutResponse struct {
	SubjectID  string           `json:"subject_id"`
	Status     string           `json:"status"`
	MinSamples int              `json:"min_samples"`
	SampleSize int              `json:"sample_size"`
	Score      *score.Burnout   `json:"score,omitempty"`
	Average    *decimal.Decimal `json:"average,omitempty"`
}

// Response status values.
const (
	StatusOK               = "ok"
	StatusInsufficientData = "insufficient_data"
)

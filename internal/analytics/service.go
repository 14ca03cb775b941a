package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/pulselog-lab/pulselog/internal/api/v1"
	coreerrors "github.com/pulselog-lab/pulselog/internal/core/errors"
	"github.com/pulselog-lab/pulselog/internal/core/period"
	"github.com/pulselog-lab/pulselog/internal/core/score"
	"github.com/pulselog-lab/pulselog/internal/core/series"
	"github.com/pulselog-lab/pulselog/internal/core/storage"
	"github.com/pulselog-lab/pulselog/internal/core/streak"
)

const (
	// defaultHistoryDays bounds the event fetch for streak and score queries.
	defaultHistoryDays = 365

	// defaultHeatmapDays is the heatmap window when the client omits one.
	defaultHeatmapDays = 90
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid analytics query")

// Service implements the analytics read path: it fetches a subject's events
// once and runs the pure engine components over them. It performs no writes.
type Service struct {
	events storage.EventStore
	nowFn  func() time.Time
}

// NewService creates a new analytics service.
func NewService(events storage.EventStore) *Service {
	return &Service{
		events: events,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Streak computes current and longest consecutive-period runs for a subject.
func (s *Service) Streak(ctx context.Context, subjectID string, kind period.Kind) (*StreakResponse, error) {
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}

	now := s.nowFn()
	events, err := s.fetchHistory(ctx, subjectID, now)
	if err != nil {
		return nil, err
	}

	result := streak.Compute(
		distinctPeriodStartsDesc(events, kind),
		period.LengthFor(kind),
		streak.DefaultTolerance,
		now,
	)

	return &StreakResponse{
		SubjectID: subjectID,
		Period:    string(kind),
		Streak:    result,
	}, nil
}

// WeeklyTrend groups a subject's events into ISO-week buckets over [start, end).
func (s *Service) WeeklyTrend(ctx context.Context, subjectID string, start, end time.Time) (*WeeklyTrendResponse, error) {
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, invalidQueryf("end time must be after start time")
	}

	events, err := s.events.ListEvents(ctx, subjectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	return &WeeklyTrendResponse{
		SubjectID: subjectID,
		Start:     start,
		End:       end,
		Weeks:     series.WeeklyTrend(toPoints(events)),
	}, nil
}

// RollingAverage computes the trailing 7-day average series for a subject.
func (s *Service) RollingAverage(ctx context.Context, subjectID string, start, end time.Time) (*RollingAverageResponse, error) {
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, invalidQueryf("end time must be after start time")
	}

	events, err := s.events.ListEvents(ctx, subjectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	return &RollingAverageResponse{
		SubjectID:  subjectID,
		WindowDays: series.RollingWindowDays,
		Points:     series.RollingAverage(toPoints(events), series.RollingWindowDays),
	}, nil
}

// Calendar emits one entry per day of the requested month.
func (s *Service) Calendar(ctx context.Context, subjectID string, year int, month time.Month) (*CalendarResponse, error) {
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}
	if month < time.January || month > time.December {
		return nil, invalidQueryf("invalid month: %d", month)
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	events, err := s.events.ListEvents(ctx, subjectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	return &CalendarResponse{
		SubjectID: subjectID,
		Calendar:  series.Calendar(toPoints(events), year, month),
	}, nil
}

// Heatmap emits exactly days cells ending today. Window caps are enforced by
// the series package before any fetch-heavy work runs.
func (s *Service) Heatmap(ctx context.Context, subjectID string, days int) (*HeatmapResponse, error) {
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}
	if days == 0 {
		days = defaultHeatmapDays
	}
	if days < 1 || days > series.MaxHeatmapDays {
		return nil, invalidQueryf("days must be between 1 and %d, got %d", series.MaxHeatmapDays, days)
	}

	now := s.nowFn()
	start := period.DayStart(now).AddDate(0, 0, -(days - 1))

	events, err := s.events.ListEvents(ctx, subjectID, start, now.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	cells, err := series.Heatmap(toPoints(events), days, now)
	if err != nil {
		return nil, err
	}

	return &HeatmapResponse{
		SubjectID: subjectID,
		Days:      days,
		Cells:     cells,
	}, nil
}

// Consistency computes the habit consistency composite score over the
// trailing year.
func (s *Service) Consistency(ctx context.Context, subjectID string, kind period.Kind, expectedPeriods int) (*ConsistencyResponse, error) {
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}
	if expectedPeriods <= 0 {
		return nil, invalidQueryf("expected_periods must be > 0, got %d", expectedPeriods)
	}

	now := s.nowFn()
	events, err := s.fetchHistory(ctx, subjectID, now)
	if err != nil {
		return nil, err
	}

	starts := distinctPeriodStartsDesc(events, kind)
	periodLength := period.LengthFor(kind)
	streakResult := streak.Compute(starts, periodLength, streak.DefaultTolerance, now)

	completionRate := float64(len(starts)) / float64(expectedPeriods) * 100

	var lastEvent time.Time
	if len(events) > 0 {
		lastEvent = events[len(events)-1].OccurredAt
	}

	return &ConsistencyResponse{
		SubjectID: subjectID,
		Score: score.Consistency(
			completionRate,
			streakResult.Current,
			streakResult.Longest,
			lastEvent,
			now,
			periodLength,
		),
		Streak: streakResult,
	}, nil
}

// Burnout computes the mood deficit score over [start, end). Below the
// minimum sample size the response carries an insufficient-data status, not
// an error.
func (s *Service) Burnout(ctx context.Context, subjectID string, start, end time.Time) (*BurnoutResponse, error) {
	if err := validateSubject(subjectID); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, invalidQueryf("end time must be after start time")
	}

	events, err := s.events.ListEvents(ctx, subjectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	values := make([]decimal.Decimal, 0, len(events))
	for _, evt := range events {
		values = append(values, evt.Value)
	}

	resp := &BurnoutResponse{
		SubjectID:  subjectID,
		MinSamples: score.MinBurnoutSamples,
		SampleSize: len(values),
	}

	result := score.ComputeBurnout(values)
	if !result.Sufficient {
		resp.Status = StatusInsufficientData
		return resp, nil
	}

	resp.Status = StatusOK
	resp.Score = &result
	if avg, ok := result.Components["average"]; ok {
		resp.Average = &avg
	}
	return resp, nil
}

// fetchHistory loads the trailing year of a subject's events.
func (s *Service) fetchHistory(ctx context.Context, subjectID string, now time.Time) ([]*v1.Event, error) {
	start := now.AddDate(0, 0, -defaultHistoryDays)
	events, err := s.events.ListEvents(ctx, subjectID, start, now.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}

// toPoints projects events onto the pure series input shape.
func toPoints(events []*v1.Event) []series.Point {
	points := make([]series.Point, 0, len(events))
	for _, evt := range events {
		points = append(points, series.Point{At: evt.OccurredAt, Value: evt.Value})
	}
	return points
}

// distinctPeriodStartsDesc normalizes events to periods and returns the
// distinct period starts, most recent first — the streak walker's input.
func distinctPeriodStartsDesc(events []*v1.Event, kind period.Kind) []time.Time {
	seen := make(map[string]time.Time)
	for _, evt := range events {
		p := period.Normalize(evt.OccurredAt.UTC(), kind)
		seen[p.Key] = p.Start
	}

	starts := make([]time.Time, 0, len(seen))
	for _, start := range seen {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].After(starts[j]) })
	return starts
}

func validateSubject(subjectID string) error {
	if subjectID == "" {
		return invalidQueryf("subject_id is required")
	}
	return nil
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// isInvalidRange reports whether err carries the invalid-range kind from the
// pure engine, so handlers can map it to HTTP 400 alongside ErrInvalidQuery.
func isInvalidRange(err error) bool {
	kind, ok := coreerrors.KindOf(err)
	return ok && kind == coreerrors.KindInvalidRange
}

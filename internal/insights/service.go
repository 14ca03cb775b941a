package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/pulselog-lab/pulselog/internal/api/v1"
	"github.com/pulselog-lab/pulselog/internal/core/series"
	"github.com/pulselog-lab/pulselog/internal/core/storage"
	"github.com/pulselog-lab/pulselog/internal/fingerprint"
)

// Service produces gated insight lists. Reads events, consults the
// fingerprint gate, and only on a dataset change calls the injected
// summarizer and commits the fresh payload.
type Service struct {
	events      storage.EventStore
	gate        *fingerprint.Gate
	summarizer  Summarizer
	maxInsights int
	nowFn       func() time.Time
}

// NewService creates an insights service. maxInsights <= 0 falls back to
// DefaultMaxInsights.
func NewService(events storage.EventStore, gate *fingerprint.Gate, summarizer Summarizer, maxInsights int) *Service {
	if events == nil {
		panic("insights: event store must not be nil")
	}
	if gate == nil {
		panic("insights: fingerprint gate must not be nil")
	}
	if summarizer == nil {
		panic("insights: summarizer must not be nil")
	}
	if maxInsights <= 0 {
		maxInsights = DefaultMaxInsights
	}
	return &Service{
		events:      events,
		gate:        gate,
		summarizer:  summarizer,
		maxInsights: maxInsights,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the insight list for a subject, recomputing only when the
// underlying event set changed since the last commit.
func (s *Service) Get(ctx context.Context, subjectID string) (*Response, error) {
	now := s.nowFn()
	start := now.AddDate(0, 0, -historyDays)

	events, err := s.events.ListEvents(ctx, subjectID, start, now.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	resp := &Response{
		SubjectID:  subjectID,
		SampleSize: len(events),
		MinSamples: MinSampleEvents,
		Insights:   []Insight{},
	}

	if len(events) < MinSampleEvents {
		resp.Status = StatusInsufficientData
		return resp, nil
	}

	recompute, cached, err := s.gate.Check(ctx, subjectID, events)
	if err != nil {
		return nil, err
	}

	if !recompute {
		resp.Status = StatusOK
		resp.Cached = true
		resp.ComputedAt = &cached.ComputedAt
		resp.Insights = decodeCached(cached.Payload)
		return resp, nil
	}

	insights, err := s.recompute(ctx, subjectID, events)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(insights)
	if err != nil {
		return nil, fmt.Errorf("encode insight payload: %w", err)
	}

	fp, err := s.gate.Commit(ctx, subjectID, events, payload)
	if err != nil {
		return nil, err
	}

	resp.Status = StatusOK
	resp.ComputedAt = &fp.ComputedAt
	resp.Insights = insights
	return resp, nil
}

// recompute builds the privacy-reduced weekly summary and runs it through the
// external summarizer. Malformed summarizer output degrades to a shorter or
// empty list, never an error.
func (s *Service) recompute(ctx context.Context, subjectID string, events []*v1.Event) ([]Insight, error) {
	summary := WeeklySummary{
		SubjectID: subjectID,
		Weeks:     series.WeeklyTrend(toPoints(events)),
	}

	raw, err := s.summarizer.Summarize(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("summarize subject %s: %w", subjectID, err)
	}

	insights, parseErr := ParseInsights(raw, s.maxInsights)
	if parseErr != nil {
		slog.Warn("Summarizer output required recovery",
			"subject_id", subjectID,
			"error", parseErr,
			"kept", len(insights))
	}
	return insights, nil
}

// decodeCached unmarshals a cached payload, tolerating payloads written by
// older builds: anything undecodable reads as empty.
func decodeCached(payload json.RawMessage) []Insight {
	if len(payload) == 0 {
		return []Insight{}
	}
	var insights []Insight
	if err := json.Unmarshal(payload, &insights); err != nil {
		slog.Warn("Cached insight payload is unreadable, returning empty", "error", err)
		return []Insight{}
	}
	return insights
}

func toPoints(events []*v1.Event) []series.Point {
	points := make([]series.Point, 0, len(events))
	for _, evt := range events {
		points = append(points, series.Point{At: evt.OccurredAt, Value: evt.Value})
	}
	return points
}

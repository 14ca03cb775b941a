package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/pulselog-lab/pulselog/internal/api/v1"
	"github.com/pulselog-lab/pulselog/internal/core/storage/memory"
	"github.com/pulselog-lab/pulselog/internal/fingerprint"
)

// fakeEventStore serves a fixed event list.
type fakeEventStore struct {
	events []*v1.Event
}

func (f *fakeEventStore) SaveEvent(_ context.Context, event *v1.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventStore) ListEvents(_ context.Context, subjectID string, _, _ time.Time) ([]*v1.Event, error) {
	var out []*v1.Event
	for _, e := range f.events {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) HasEventInPeriod(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

// countingSummarizer records how often the external step actually ran.
type countingSummarizer struct {
	calls  int
	output string
	err    error
}

func (c *countingSummarizer) Summarize(_ context.Context, _ WeeklySummary) (string, error) {
	c.calls++
	return c.output, c.err
}

func moodEvents(subjectID string, n int) []*v1.Event {
	events := make([]*v1.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, &v1.Event{
			SubjectID:  subjectID,
			Kind:       v1.KindMood,
			OccurredAt: time.Date(2026, 8, 1+i, 9, 0, 0, 0, time.UTC),
			Value:      decimal.NewFromInt(int64(4 + i%3)),
		})
	}
	return events
}

func newTestService(store *fakeEventStore, summarizer Summarizer) *Service {
	svc := NewService(store, fingerprint.NewGate(memory.NewFingerprintStore()), summarizer, 10)
	svc.nowFn = func() time.Time {
		return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestGetInsufficientData(t *testing.T) {
	store := &fakeEventStore{events: moodEvents("s1", MinSampleEvents-1)}
	sum := &countingSummarizer{output: "[]"}
	svc := newTestService(store, sum)

	resp, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, StatusInsufficientData, resp.Status)
	require.Equal(t, MinSampleEvents-1, resp.SampleSize)
	require.Empty(t, resp.Insights)
	require.Zero(t, sum.calls, "summarizer must not run below the sample minimum")
}

func TestGetRecomputesThenServesCache(t *testing.T) {
	ctx := context.Background()
	store := &fakeEventStore{events: moodEvents("s1", 6)}
	sum := &countingSummarizer{output: `[{"title":"A","body":"B"}]`}
	svc := newTestService(store, sum)

	first, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, StatusOK, first.Status)
	require.False(t, first.Cached)
	require.Len(t, first.Insights, 1)
	require.Equal(t, 1, sum.calls)

	// Unchanged dataset: cached payload, no second external call.
	second, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, StatusOK, second.Status)
	require.True(t, second.Cached)
	require.Equal(t, first.Insights, second.Insights)
	require.Equal(t, 1, sum.calls)

	// New event invalidates the fingerprint and forces a recompute.
	require.NoError(t, store.SaveEvent(ctx, &v1.Event{
		SubjectID:  "s1",
		Kind:       v1.KindMood,
		OccurredAt: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		Value:      decimal.NewFromInt(2),
	}))

	third, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.False(t, third.Cached)
	require.Equal(t, 2, sum.calls)
}

func TestGetMalformedSummarizerOutputDegrades(t *testing.T) {
	store := &fakeEventStore{events: moodEvents("s1", 6)}
	sum := &countingSummarizer{output: "I have no structured thoughts today."}
	svc := newTestService(store, sum)

	resp, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err, "malformed output must never fail the request")
	require.Equal(t, StatusOK, resp.Status)
	require.Empty(t, resp.Insights)

	// The empty result was cached too: no retry storm against the model.
	resp, err = svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, resp.Cached)
	require.Equal(t, 1, sum.calls)
}

func TestGetSummarizerErrorPropagates(t *testing.T) {
	store := &fakeEventStore{events: moodEvents("s1", 6)}
	sum := &countingSummarizer{err: errors.New("upstream timeout")}
	svc := newTestService(store, sum)

	_, err := svc.Get(context.Background(), "s1")
	require.Error(t, err)
}

func TestTemplateSummarizerRoundTrips(t *testing.T) {
	store := &fakeEventStore{events: moodEvents("s1", 8)}
	svc := newTestService(store, TemplateSummarizer{})

	resp, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, StatusOK, resp.Status)
	require.NotEmpty(t, resp.Insights)
	for _, ins := range resp.Insights {
		require.NotEmpty(t, ins.Title)
		require.NotEmpty(t, ins.Body)
	}
}

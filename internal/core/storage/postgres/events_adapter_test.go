package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/pulselog-lab/pulselog/internal/api/v1"
	"github.com/pulselog-lab/pulselog/internal/core/storage"
)

// newMockAdapter builds an Adapter over a sqlmock connection with all three
// statements prepared, bypassing the DSN/ping path of NewAdapter.
func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectPrepare(querySaveEvent)
	mock.ExpectPrepare(queryListEvents)
	mock.ExpectPrepare(queryHasEventInPeriod)

	stmtSave, err := db.Prepare(querySaveEvent)
	require.NoError(t, err)
	stmtList, err := db.Prepare(queryListEvents)
	require.NoError(t, err)
	stmtHas, err := db.Prepare(queryHasEventInPeriod)
	require.NoError(t, err)

	return &Adapter{
		db:              db,
		stmtSaveEvent:   stmtSave,
		stmtListEvents:  stmtList,
		stmtHasInPeriod: stmtHas,
	}, mock
}

func testEvent() *v1.Event {
	return &v1.Event{
		ID:         "evt-1",
		SubjectID:  "habit:water",
		Kind:       v1.KindHabit,
		OccurredAt: time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC),
		IngestedAt: time.Date(2026, 2, 23, 9, 0, 1, 0, time.UTC),
		PeriodKey:  "2026-02-23",
		Value:      decimal.NewFromInt(1),
		Note:       "morning glass",
		Metadata:   map[string]string{"source": "cli"},
	}
}

func TestSaveEvent(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	evt := testEvent()

	mock.ExpectQuery(querySaveEvent).
		WithArgs(evt.ID, evt.SubjectID, "habit", evt.OccurredAt, evt.IngestedAt,
			evt.PeriodKey, "1", evt.Note, []byte(`{"source":"cli"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(evt.ID))

	require.NoError(t, adapter.SaveEvent(context.Background(), evt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEventDuplicatePeriod(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	evt := testEvent()

	// ON CONFLICT DO NOTHING returns zero rows for a duplicate habit period.
	mock.ExpectQuery(querySaveEvent).
		WithArgs(evt.ID, evt.SubjectID, "habit", evt.OccurredAt, evt.IngestedAt,
			evt.PeriodKey, "1", evt.Note, []byte(`{"source":"cli"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := adapter.SaveEvent(context.Background(), evt)
	require.ErrorIs(t, err, storage.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEvents(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	columns := []string{"id", "subject_id", "kind", "occurred_at", "ingested_at",
		"period_key", "value", "note", "metadata"}
	rows := sqlmock.NewRows(columns).
		AddRow("evt-1", "mood:me", "mood",
			time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 10, 9, 0, 1, 0, time.UTC),
			"2026-02-10", "4.5", "", nil).
		AddRow("evt-2", "mood:me", "mood",
			time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 11, 9, 0, 1, 0, time.UTC),
			"2026-02-11", "6", "better", []byte(`{"source":"app"}`))

	mock.ExpectQuery(queryListEvents).
		WithArgs("mood:me", start, end).
		WillReturnRows(rows)

	events, err := adapter.ListEvents(context.Background(), "mood:me", start, end)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Equal(t, "evt-1", events[0].ID)
	require.Equal(t, v1.KindMood, events[0].Kind)
	require.True(t, events[0].Value.Equal(decimal.NewFromFloat(4.5)))
	require.Nil(t, events[0].Metadata)

	require.True(t, events[1].Value.Equal(decimal.NewFromInt(6)))
	require.Equal(t, map[string]string{"source": "app"}, events[1].Metadata)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEventsBadValue(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	columns := []string{"id", "subject_id", "kind", "occurred_at", "ingested_at",
		"period_key", "value", "note", "metadata"}
	rows := sqlmock.NewRows(columns).
		AddRow("evt-1", "mood:me", "mood",
			time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 10, 9, 0, 1, 0, time.UTC),
			"2026-02-10", "not-a-number", "", nil)

	mock.ExpectQuery(queryListEvents).
		WithArgs("mood:me", start, end).
		WillReturnRows(rows)

	_, err := adapter.ListEvents(context.Background(), "mood:me", start, end)
	require.Error(t, err)
}

func TestHasEventInPeriod(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(queryHasEventInPeriod).
		WithArgs("habit:water", "2026-02-23").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	logged, err := adapter.HasEventInPeriod(context.Background(), "habit:water", "2026-02-23")
	require.NoError(t, err)
	require.True(t, logged)

	mock.ExpectQuery(queryHasEventInPeriod).
		WithArgs("habit:water", "2026-02-24").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	logged, err = adapter.HasEventInPeriod(context.Background(), "habit:water", "2026-02-24")
	require.NoError(t, err)
	require.False(t, logged)
	require.NoError(t, mock.ExpectationsWereMet())
}

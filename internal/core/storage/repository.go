package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/pulselog-lab/pulselog/internal/api/v1"
)

// ErrDuplicate is returned when an event collides with the one-event-per-period
// uniqueness constraint. The storage layer is the sole source of truth for
// "already happened"; nothing re-derives it from a non-atomic scan.
var ErrDuplicate = errors.New("duplicate event for period")

// ErrNotFound is returned for point lookups with no matching row.
var ErrNotFound = errors.New("not found")

// EventStore is the read/write contract for behavioral events.
type EventStore interface {
	// SaveEvent persists an event. Returns ErrDuplicate when a habit event
	// for the same (subject, period) already exists.
	SaveEvent(ctx context.Context, event *v1.Event) error

	// ListEvents fetches a subject's events with occurred_at in [start, end),
	// ordered by occurred_at ascending.
	ListEvents(ctx context.Context, subjectID string, start, end time.Time) ([]*v1.Event, error)

	// HasEventInPeriod is an atomic existence check: whether the subject has
	// at least one event with the given period key. Used by the reminder
	// sweep instead of a race-prone read-then-decide.
	HasEventInPeriod(ctx context.Context, subjectID, periodKey string) (bool, error)
}

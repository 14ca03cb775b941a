package v1

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two behavioral series a subject can carry.
type Kind string

const (
	// KindMood is a scored series: each event carries a mood value (e.g. 1-10).
	// Multiple mood events per day are allowed; the analytics engine collapses
	// them per bucket.
	KindMood Kind = "mood"

	// KindHabit is a presence series: each event marks a period as completed.
	// At most one habit event per period is accepted (enforced by a uniqueness
	// constraint at the storage layer).
	KindHabit Kind = "habit"
)

// ValidKind reports whether k is a recognized event kind.
func ValidKind(k Kind) bool {
	return k == KindMood || k == KindHabit
}

// Event is the atomic unit of the system: one immutable behavioral fact.
type Event struct {
	// ID is the server-assigned unique identifier.
	ID string `json:"id"`

	// SubjectID identifies the series being measured: one habit, or one
	// user's mood stream. It is the primary dimension for all analytics.
	SubjectID string `json:"subject_id"`

	// Kind is the series type ("mood" or "habit").
	Kind Kind `json:"kind"`

	// OccurredAt is when the event happened in the real world (client clock).
	OccurredAt time.Time `json:"occurred_at"`

	// IngestedAt is when PulseLog received the event (server clock).
	// Set by the ingestion service, never by the client.
	IngestedAt time.Time `json:"ingested_at"`

	// PeriodKey is the canonical period the event falls into, stamped at
	// ingest time. It backs the one-event-per-period uniqueness constraint
	// for habit events. Not exposed in the public API.
	PeriodKey string `json:"-"`

	// Value is the numeric payload: a mood score, or a habit completion
	// amount (defaults to 1).
	Value decimal.Decimal `json:"value"`

	// Note is an optional free-text annotation.
	Note string `json:"note,omitempty"`

	// Metadata is a generic key-value store for context (source, device, tz).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate ensures the event has all required attributes.
func (e *Event) Validate() error {
	if e.SubjectID == "" {
		return fmt.Errorf("subject_id is required")
	}

	if !ValidKind(e.Kind) {
		return fmt.Errorf("kind must be %q or %q", KindMood, KindHabit)
	}

	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	if e.Kind == KindMood && e.Value.IsZero() {
		return fmt.Errorf("value is required for mood events")
	}

	return nil
}

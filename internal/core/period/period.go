package period

import (
	"fmt"
	"time"
)

// Kind selects the canonical bucket size.
type Kind string

const (
	Day  Kind = "day"
	Week Kind = "week"
)

const (
	// DayLength is the nominal length of a day period.
	DayLength = 24 * time.Hour

	// WeekLength is the nominal length of a week period.
	WeekLength = 7 * 24 * time.Hour

	// keyFormat is the canonical date layout for period keys.
	keyFormat = "2006-01-02"
)

// LengthFor returns the nominal duration of one period of the given kind.
func LengthFor(kind Kind) time.Duration {
	if kind == Week {
		return WeekLength
	}
	return DayLength
}

// Period is a canonical time bucket. Two events normalize to the same Period
// iff they fall in the same calendar day (day kind) or the same Monday-anchored
// ISO week (week kind).
type Period struct {
	Kind  Kind      `json:"kind"`
	Key   string    `json:"key"`
	Start time.Time `json:"start"`
}

// Normalize maps a timestamp to its canonical Period.
// Pure and total: no state, no randomness, defined for every valid timestamp.
func Normalize(t time.Time, kind Kind) Period {
	switch kind {
	case Week:
		start := WeekStart(t)
		return Period{Kind: Week, Key: start.Format(keyFormat), Start: start}
	default:
		start := DayStart(t)
		return Period{Kind: Day, Key: start.Format(keyFormat), Start: start}
	}
}

// DayStart strips time-of-day, keeping the timestamp's location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the Monday of the ISO week containing t.
// Sunday maps backward 6 days, not forward.
func WeekStart(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return DayStart(t.AddDate(0, 0, -offset))
}

// ISOWeekLabel returns the zero-padded ISO-8601 week label, e.g. "2026-W07".
// Uses the ISO rule that week 1 contains the year's first Thursday; the
// ISO year can differ from the calendar year near year boundaries, which is
// why this must never be derived from dayOfYear/7.
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// ParseKey parses a canonical period key back into its start time (UTC).
func ParseKey(key string) (time.Time, error) {
	ts, err := time.Parse(keyFormat, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period key %q: %w", key, err)
	}
	return ts, nil
}

package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func d(yy int, mm time.Month, dd int) time.Time {
	return time.Date(yy, mm, dd, 0, 0, 0, 0, time.UTC)
}

func TestComputeEmpty(t *testing.T) {
	res := Compute(nil, day, DefaultTolerance, d(2026, 2, 16))
	require.Equal(t, Result{Current: 0, Longest: 0}, res)
}

func TestComputeSingleRecent(t *testing.T) {
	now := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	res := Compute([]time.Time{d(2026, 2, 16)}, day, DefaultTolerance, now)
	require.Equal(t, Result{Current: 1, Longest: 1}, res)
}

func TestComputeGapBreaksCurrentRun(t *testing.T) {
	// Logs on Mon/Tue/Wed of one week, nothing until the following Monday.
	// After logging that Monday, current is 1 (the gap broke the run) while
	// longest remains 3.
	starts := []time.Time{
		d(2026, 2, 16), // following Monday
		d(2026, 2, 11), // Wednesday
		d(2026, 2, 10), // Tuesday
		d(2026, 2, 9),  // Monday
	}
	now := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)

	res := Compute(starts, day, DefaultTolerance, now)
	require.Equal(t, 1, res.Current)
	require.Equal(t, 3, res.Longest)
}

func TestComputeCurrentPeriodNotYetLogged(t *testing.T) {
	// The user logged yesterday but not yet today: the streak survives
	// because the anchor still falls within the previous period.
	starts := []time.Time{
		d(2026, 2, 15),
		d(2026, 2, 14),
		d(2026, 2, 13),
	}
	now := time.Date(2026, 2, 16, 20, 0, 0, 0, time.UTC)

	res := Compute(starts, day, DefaultTolerance, now)
	require.Equal(t, 3, res.Current)
	require.Equal(t, 3, res.Longest)
}

func TestComputeStaleAnchorKillsCurrentRun(t *testing.T) {
	// Last log three days ago: a full period was genuinely skipped, so the
	// current streak is dead even though the historical run was long.
	starts := []time.Time{
		d(2026, 2, 13),
		d(2026, 2, 12),
		d(2026, 2, 11),
		d(2026, 2, 10),
	}
	now := time.Date(2026, 2, 16, 8, 0, 0, 0, time.UTC)

	res := Compute(starts, day, DefaultTolerance, now)
	require.Equal(t, 0, res.Current)
	require.Equal(t, 4, res.Longest)
}

func TestComputeToleranceAbsorbsSkew(t *testing.T) {
	// A gap of exactly one period plus 30s of skew stays consecutive under
	// the default 60s tolerance.
	starts := []time.Time{
		d(2026, 2, 16).Add(30 * time.Second),
		d(2026, 2, 15),
	}
	now := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)

	res := Compute(starts, day, DefaultTolerance, now)
	require.Equal(t, 2, res.Current)

	// Beyond tolerance the run splits.
	starts = []time.Time{
		d(2026, 2, 16).Add(2 * time.Minute),
		d(2026, 2, 15),
	}
	res = Compute(starts, day, DefaultTolerance, now)
	require.Equal(t, 1, res.Current)
	require.Equal(t, 1, res.Longest)
}

func TestComputeWeeklyPeriods(t *testing.T) {
	starts := []time.Time{
		d(2026, 2, 9),  // W07
		d(2026, 2, 2),  // W06
		d(2026, 1, 26), // W05
		d(2026, 1, 5),  // W02 — two-week gap before W05
	}
	now := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)

	res := Compute(starts, 7*day, DefaultTolerance, now)
	require.Equal(t, 3, res.Current)
	require.Equal(t, 3, res.Longest)
}

func TestComputeLongestNeverBelowCurrent(t *testing.T) {
	now := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	res := Compute([]time.Time{d(2026, 2, 16), d(2026, 2, 15)}, day, DefaultTolerance, now)
	require.GreaterOrEqual(t, res.Longest, res.Current)
}

// Package streak computes consecutive-period runs over a normalized event
// history. All functions are pure: they take an already-fetched, distinct
// list of period starts and never touch storage or the wall clock directly.
package streak

import (
	"sort"
	"time"
)

// DefaultTolerance is the slack allowed beyond the nominal period length when
// deciding whether two periods are consecutive. 60 seconds absorbs the
// one-hour wall-clock shift of a daylight-saving transition once period
// starts are midnight-normalized.
const DefaultTolerance = 60 * time.Second

// Result is the derived streak state. Never persisted as authoritative; it is
// always recomputed from the current event set.
type Result struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Compute walks a descending list of distinct period starts and returns the
// current and longest consecutive runs.
//
// Anchor rule (applied uniformly to mood and habit series): the anchor is the
// most recent logged period. The current streak is live only while the anchor
// falls within the period containing now or the one before it — a streak must
// not reset merely because the user has not yet logged the current period, but
// it breaks as soon as a full period was genuinely skipped.
func Compute(startsDesc []time.Time, periodLength, tolerance time.Duration, now time.Time) Result {
	if len(startsDesc) == 0 {
		return Result{}
	}
	if periodLength <= 0 {
		periodLength = 24 * time.Hour
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	res := Result{
		Current: currentRun(startsDesc, periodLength, tolerance, now),
		Longest: longestRun(startsDesc, periodLength, tolerance),
	}
	if res.Current > res.Longest {
		res.Longest = res.Current
	}
	return res
}

// currentRun counts backward from the anchor while consecutive periods are
// present within tolerance of the expected boundary.
func currentRun(startsDesc []time.Time, periodLength, tolerance time.Duration, now time.Time) int {
	anchor := startsDesc[0]

	// An anchor older than the previous period (one full period beyond
	// tolerance) is dead history: the current streak is zero regardless of
	// how long the run once was.
	if now.Sub(anchor) > 2*periodLength+tolerance {
		return 0
	}

	run := 1
	for i := 1; i < len(startsDesc); i++ {
		gap := startsDesc[i-1].Sub(startsDesc[i])
		if gap <= periodLength+tolerance {
			run++
			continue
		}
		break
	}
	return run
}

// longestRun scans the full ascending history and returns the maximal
// consecutive run, with no anchor bias.
func longestRun(startsDesc []time.Time, periodLength, tolerance time.Duration) int {
	asc := make([]time.Time, len(startsDesc))
	copy(asc, startsDesc)
	sort.Slice(asc, func(i, j int) bool { return asc[i].Before(asc[j]) })

	longest := 1
	run := 1
	for i := 1; i < len(asc); i++ {
		gap := asc[i].Sub(asc[i-1])
		if gap <= periodLength+tolerance {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Package series turns an unordered list of timestamped values into bucketed
// aggregates: weekly trends, rolling windows, monthly calendars and
// fixed-length heatmaps. Every function is pure and performs no I/O; callers
// fetch events first and hand in plain points.
package series

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	coreerrors "github.com/pulselog-lab/pulselog/internal/core/errors"
	"github.com/pulselog-lab/pulselog/internal/core/period"
)

const (
	// MaxHeatmapDays is the hard cap on a heatmap window (two years).
	MaxHeatmapDays = 730

	// RollingWindowDays is the trailing window of the rolling average,
	// inclusive on both ends.
	RollingWindowDays = 7

	// avgPrecision is the decimal places averages are rounded to.
	avgPrecision = 2
)

// Point is one timestamped value of a subject's series.
type Point struct {
	At    time.Time
	Value decimal.Decimal
}

// Bucket is one aggregated period. Average is null (not zero) when Count is
// zero, to distinguish "no data" from "data averaging to zero".
type Bucket struct {
	PeriodKey string              `json:"period_key"`
	Count     int                 `json:"count"`
	Sum       decimal.Decimal     `json:"sum"`
	Average   decimal.NullDecimal `json:"average"`
}

// WeekBucket is one ISO week of a weekly trend.
type WeekBucket struct {
	Week    string              `json:"week"`
	Count   int                 `json:"count"`
	Average decimal.NullDecimal `json:"average"`
}

// RollingPoint is one day of a trailing-window average series.
type RollingPoint struct {
	Date    string          `json:"date"`
	Average decimal.Decimal `json:"average"`
}

// CalendarDay is one cell of a monthly calendar.
type CalendarDay struct {
	Date    string              `json:"date"`
	Count   int                 `json:"count"`
	Average decimal.NullDecimal `json:"average"`
}

// MonthlyCalendar is the full calendar for one month plus its overall average.
type MonthlyCalendar struct {
	Month   string              `json:"month"`
	Days    []CalendarDay       `json:"days"`
	Average decimal.NullDecimal `json:"average"`
}

// HeatmapCell is one day of a trailing heatmap window. A cell with no data
// has Count 0 and a null Average — distinct from a real zero score.
type HeatmapCell struct {
	Date    string              `json:"date"`
	Count   int                 `json:"count"`
	Average decimal.NullDecimal `json:"average"`
}

// WeeklyTrend groups points by ISO week label and returns per-week count and
// average, sorted lexicographically. Safe only because week labels are
// zero-padded (W07, not W7).
func WeeklyTrend(points []Point) []WeekBucket {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, p := range points {
		label := period.ISOWeekLabel(p.At)
		sums[label] = sums[label].Add(p.Value)
		counts[label]++
	}

	weeks := make([]string, 0, len(sums))
	for label := range sums {
		weeks = append(weeks, label)
	}
	sort.Strings(weeks)

	out := make([]WeekBucket, 0, len(weeks))
	for _, label := range weeks {
		out = append(out, WeekBucket{
			Week:    label,
			Count:   counts[label],
			Average: average(sums[label], counts[label]),
		})
	}
	return out
}

// RollingAverage first collapses same-day points into one daily average (so a
// high-volume day cannot dominate), then for every distinct day present
// averages all daily values within the trailing window ending on that day,
// inclusive on both ends.
func RollingAverage(points []Point, windowDays int) []RollingPoint {
	if windowDays <= 0 {
		windowDays = RollingWindowDays
	}

	daily := collapseDaily(points)
	if len(daily) == 0 {
		return []RollingPoint{}
	}

	days := make([]time.Time, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]RollingPoint, 0, len(days))
	for _, day := range days {
		windowStart := day.AddDate(0, 0, -(windowDays - 1))
		sum := decimal.Zero
		n := 0
		for d, v := range daily {
			if d.Before(windowStart) || d.After(day) {
				continue
			}
			sum = sum.Add(v)
			n++
		}
		out = append(out, RollingPoint{
			Date:    day.Format("2006-01-02"),
			Average: sum.Div(decimal.NewFromInt(int64(n))).Round(avgPrecision),
		})
	}
	return out
}

// Calendar emits exactly one entry per calendar day of the given month.
// Days with no points get a null average and zero count. Month boundaries are
// computed by calendar arithmetic, never string parsing: the last day of the
// month is day zero of the following month.
func Calendar(points []Point, year int, month time.Month) MonthlyCalendar {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)

	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	total := decimal.Zero
	totalCount := 0
	for _, p := range points {
		key := period.Normalize(p.At, period.Day).Key
		if key < first.Format("2006-01-02") || key > last.Format("2006-01-02") {
			continue
		}
		sums[key] = sums[key].Add(p.Value)
		counts[key]++
		total = total.Add(p.Value)
		totalCount++
	}

	days := make([]CalendarDay, 0, last.Day())
	for d := 1; d <= last.Day(); d++ {
		key := time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		days = append(days, CalendarDay{
			Date:    key,
			Count:   counts[key],
			Average: average(sums[key], counts[key]),
		})
	}

	return MonthlyCalendar{
		Month:   first.Format("2006-01"),
		Days:    days,
		Average: average(total, totalCount),
	}
}

// Heatmap emits exactly n cells spanning n consecutive days ending today
// (relative to now), oldest to newest, with no gaps. Days above
// MaxHeatmapDays or below 1 are rejected before computation begins.
func Heatmap(points []Point, n int, now time.Time) ([]HeatmapCell, error) {
	if n < 1 {
		return nil, coreerrors.InvalidRangef("heatmap days must be >= 1, got %d", n)
	}
	if n > MaxHeatmapDays {
		return nil, coreerrors.InvalidRangef("heatmap days must be <= %d, got %d", MaxHeatmapDays, n)
	}

	end := period.DayStart(now)
	start := end.AddDate(0, 0, -(n - 1))

	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, p := range points {
		day := period.DayStart(p.At)
		if day.Before(start) || day.After(end) {
			continue
		}
		key := day.Format("2006-01-02")
		sums[key] = sums[key].Add(p.Value)
		counts[key]++
	}

	cells := make([]HeatmapCell, 0, n)
	for d := 0; d < n; d++ {
		key := start.AddDate(0, 0, d).Format("2006-01-02")
		cells = append(cells, HeatmapCell{
			Date:    key,
			Count:   counts[key],
			Average: average(sums[key], counts[key]),
		})
	}
	return cells, nil
}

// DailyBuckets groups points into day buckets with count, sum and average.
// The sum of bucket counts equals the number of input points.
func DailyBuckets(points []Point) []Bucket {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, p := range points {
		key := period.Normalize(p.At, period.Day).Key
		sums[key] = sums[key].Add(p.Value)
		counts[key]++
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, Bucket{
			PeriodKey: k,
			Count:     counts[k],
			Sum:       sums[k],
			Average:   average(sums[k], counts[k]),
		})
	}
	return out
}

// collapseDaily reduces all points of one calendar day to their daily average.
func collapseDaily(points []Point) map[time.Time]decimal.Decimal {
	sums := make(map[time.Time]decimal.Decimal)
	counts := make(map[time.Time]int)
	for _, p := range points {
		d := period.DayStart(p.At)
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		sums[day] = sums[day].Add(p.Value)
		counts[day]++
	}

	out := make(map[time.Time]decimal.Decimal, len(sums))
	for day, sum := range sums {
		out[day] = sum.Div(decimal.NewFromInt(int64(counts[day]))).Round(avgPrecision)
	}
	return out
}

// average guards division-by-zero: an empty bucket yields a null average,
// never NaN or zero.
func average(sum decimal.Decimal, count int) decimal.NullDecimal {
	if count == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{
		Decimal: sum.Div(decimal.NewFromInt(int64(count))).Round(avgPrecision),
		Valid:   true,
	}
}

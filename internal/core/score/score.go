// Package score combines normalized sub-metrics into composite scores.
// Every weight and cutoff is a named constant: they are policy decisions,
// not derived values, and are testable independently of the data pipeline.
package score

import (
	"time"

	"github.com/shopspring/decimal"
)

// Consistency score weights (habit-oriented). Components are each bounded
// [0, 100], so the weighted sum is too.
const (
	WeightCompletionRate = 0.5
	WeightStreakRatio    = 0.3
	WeightRecency        = 0.2

	// RecencyPeriods is how many period-lengths back from now the most
	// recent event may fall and still count as "recent".
	RecencyPeriods = 2
)

// Burnout score weights and cutoffs (mood-oriented).
const (
	// LowMoodCutoff: values at or below this count as low-mood events.
	LowMoodCutoff = 2.0

	// NeutralThreshold: averages below this accrue a deficit.
	NeutralThreshold = 3.0

	WeightLowCount   = 2.0
	WeightDeficit    = 3.0
	WeightVolatility = 1.5

	// MinBurnoutSamples is the minimum window size; below it the scorer
	// returns an insufficient-data result instead of a misleading number.
	MinBurnoutSamples = 3

	// Risk level boundaries on the burnout score.
	RiskHighAbove     = 10.0
	RiskModerateAbove = 5.0
)

// Risk levels reported with a burnout score.
const (
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
)

// Composite is a combined score plus its named components.
type Composite struct {
	Value      decimal.Decimal            `json:"value"`
	Components map[string]decimal.Decimal `json:"components"`
}

// Consistency combines completion rate, streak ratio and recency into a
// single bounded [0, 100] habit score:
//
//	0.5*completionRate + 0.3*streakRatio + 0.2*recencyFlag
//
// completionRate is capped at 100. streakRatio is current/longest*100 (zero
// when longest is zero). recencyFlag is 100 when the most recent event falls
// within RecencyPeriods period-lengths of now, else 0.
func Consistency(completionRate float64, current, longest int, lastEvent, now time.Time, periodLength time.Duration) Composite {
	rate := decimal.NewFromFloat(completionRate)
	hundred := decimal.NewFromInt(100)
	if rate.GreaterThan(hundred) {
		rate = hundred
	}
	if rate.IsNegative() {
		rate = decimal.Zero
	}

	streakRatio := decimal.Zero
	if longest > 0 {
		streakRatio = decimal.NewFromInt(int64(current)).
			Div(decimal.NewFromInt(int64(longest))).
			Mul(hundred)
	}

	recency := decimal.Zero
	if !lastEvent.IsZero() && now.Sub(lastEvent) <= time.Duration(RecencyPeriods)*periodLength {
		recency = hundred
	}

	value := rate.Mul(decimal.NewFromFloat(WeightCompletionRate)).
		Add(streakRatio.Mul(decimal.NewFromFloat(WeightStreakRatio))).
		Add(recency.Mul(decimal.NewFromFloat(WeightRecency))).
		Round(2)

	return Composite{
		Value: value,
		Components: map[string]decimal.Decimal{
			"completion_rate": rate.Round(2),
			"streak_ratio":    streakRatio.Round(2),
			"recency_flag":    recency,
		},
	}
}

// Burnout is the mood-oriented deficit score. Sufficient is false below
// MinBurnoutSamples; callers must check it before reading the other fields.
type Burnout struct {
	Sufficient bool                       `json:"sufficient"`
	Value      decimal.Decimal            `json:"value"`
	RiskLevel  string                     `json:"risk_level"`
	Components map[string]decimal.Decimal `json:"components"`
}

// ComputeBurnout scores a window of mood values:
//
//	lowCount*2 + max(0, neutralThreshold - avg)*3 + (max-min)*1.5
//
// The average is rounded to two decimal places before the deficit term, and
// the deficit is clamped at zero so an above-threshold average never reduces
// the score.
func ComputeBurnout(values []decimal.Decimal) Burnout {
	if len(values) < MinBurnoutSamples {
		return Burnout{Sufficient: false}
	}

	low := decimal.NewFromFloat(LowMoodCutoff)
	sum := decimal.Zero
	minV, maxV := values[0], values[0]
	lowCount := 0
	for _, v := range values {
		sum = sum.Add(v)
		if v.LessThan(minV) {
			minV = v
		}
		if v.GreaterThan(maxV) {
			maxV = v
		}
		if v.LessThanOrEqual(low) {
			lowCount++
		}
	}

	avg := sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2)

	deficit := decimal.NewFromFloat(NeutralThreshold).Sub(avg)
	if deficit.IsNegative() {
		deficit = decimal.Zero
	}

	volatility := maxV.Sub(minV)

	value := decimal.NewFromInt(int64(lowCount)).Mul(decimal.NewFromFloat(WeightLowCount)).
		Add(deficit.Mul(decimal.NewFromFloat(WeightDeficit))).
		Add(volatility.Mul(decimal.NewFromFloat(WeightVolatility))).
		Round(2)

	return Burnout{
		Sufficient: true,
		Value:      value,
		RiskLevel:  riskLevel(value),
		Components: map[string]decimal.Decimal{
			"low_count":  decimal.NewFromInt(int64(lowCount)),
			"average":    avg,
			"deficit":    deficit.Round(2),
			"volatility": volatility,
		},
	}
}

func riskLevel(v decimal.Decimal) string {
	switch {
	case v.GreaterThan(decimal.NewFromFloat(RiskHighAbove)):
		return RiskHigh
	case v.GreaterThan(decimal.NewFromFloat(RiskModerateAbove)):
		return RiskModerate
	default:
		return RiskLow
	}
}

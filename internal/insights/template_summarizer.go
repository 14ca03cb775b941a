package insights

import (
	"context"
	"encoding/json"
	"fmt"
)

// TemplateSummarizer phrases weekly buckets with fixed templates instead of
// calling an external model. It is the default summarizer when no provider is
// configured, and emits the same JSON-array contract a model would, so the
// full parse-and-cache path runs identically in both setups.
type TemplateSummarizer struct{}

func (TemplateSummarizer) Summarize(_ context.Context, summary WeeklySummary) (string, error) {
	if len(summary.Weeks) == 0 {
		return "[]", nil
	}

	insights := make([]Insight, 0, 3)

	total := 0
	best := summary.Weeks[0]
	for _, w := range summary.Weeks {
		total += w.Count
		if w.Count > best.Count {
			best = w
		}
	}

	insights = append(insights, Insight{
		Title:    "Logging volume",
		Body:     fmt.Sprintf("You logged %d entries across %d weeks.", total, len(summary.Weeks)),
		Category: "volume",
	})
	insights = append(insights, Insight{
		Title:    "Most active week",
		Body:     fmt.Sprintf("Week %s was your most active with %d entries.", best.Week, best.Count),
		Category: "pattern",
	})

	first, last := summary.Weeks[0], summary.Weeks[len(summary.Weeks)-1]
	if first.Average.Valid && last.Average.Valid && len(summary.Weeks) > 1 {
		trend := "held steady"
		switch {
		case last.Average.Decimal.GreaterThan(first.Average.Decimal):
			trend = "trended up"
		case last.Average.Decimal.LessThan(first.Average.Decimal):
			trend = "trended down"
		}
		insights = append(insights, Insight{
			Title:    "Average trend",
			Body:     fmt.Sprintf("Your weekly average %s, from %s to %s.", trend, first.Average.Decimal.StringFixed(2), last.Average.Decimal.StringFixed(2)),
			Category: "trend",
		})
	}

	out, err := json.Marshal(insights)
	if err != nil {
		return "", fmt.Errorf("encode template insights: %w", err)
	}
	return string(out), nil
}

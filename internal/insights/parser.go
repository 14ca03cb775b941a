package insights

import (
	"encoding/json"
	"strings"

	coreerrors "github.com/pulselog-lab/pulselog/internal/core/errors"
)

// ParseInsights extracts a bounded insight list from raw summarizer output.
// Models wrap their answers in code fences, prefix them with prose, or emit
// individually broken items; all of that is recovered here. The returned
// error is informational (KindMalformedOutput) — the list is always usable,
// falling back to empty rather than failing the request.
func ParseInsights(raw string, max int) ([]Insight, error) {
	if max <= 0 {
		max = DefaultMaxInsights
	}

	body := extractJSONArray(stripCodeFences(raw))
	if body == "" {
		return []Insight{}, coreerrors.MalformedOutputf("no JSON array found in summarizer output")
	}

	// Decode items individually so one broken record does not discard the rest.
	var rawItems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &rawItems); err != nil {
		return []Insight{}, coreerrors.MalformedOutputf("summarizer output is not a JSON array: %v", err)
	}

	insights := make([]Insight, 0, len(rawItems))
	dropped := 0
	for _, item := range rawItems {
		var ins Insight
		if err := json.Unmarshal(item, &ins); err != nil {
			dropped++
			continue
		}
		if strings.TrimSpace(ins.Title) == "" || strings.TrimSpace(ins.Body) == "" {
			dropped++
			continue
		}
		insights = append(insights, ins)
		if len(insights) == max {
			break
		}
	}

	if dropped > 0 {
		return insights, coreerrors.MalformedOutputf("dropped %d malformed insight records", dropped)
	}
	return insights, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, leaving inner content untouched.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)

	start := strings.Index(trimmed, "```")
	if start == -1 {
		return trimmed
	}

	rest := trimmed[start+3:]
	// Skip the language tag on the opening fence line.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "[{") {
			rest = rest[nl+1:]
		}
	}

	if end := strings.LastIndex(rest, "```"); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// extractJSONArray returns the outermost bracketed slice of s, tolerating
// surrounding prose on either side. Empty string when no array is present.
func extractJSONArray(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

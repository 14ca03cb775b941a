package insights

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInsightsCleanArray(t *testing.T) {
	raw := `[{"title":"Logging volume","body":"You logged 12 entries.","category":"volume"}]`

	got, err := ParseInsights(raw, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Logging volume", got[0].Title)
	require.Equal(t, "volume", got[0].Category)
}

func TestParseInsightsStripsCodeFence(t *testing.T) {
	raw := "```json\n[{\"title\":\"A\",\"body\":\"B\"}]\n```"

	got, err := ParseInsights(raw, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "A", got[0].Title)
}

func TestParseInsightsStripsSurroundingProse(t *testing.T) {
	raw := `Here are your insights for this week:

[{"title":"A","body":"B"},{"title":"C","body":"D"}]

Hope that helps!`

	got, err := ParseInsights(raw, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestParseInsightsDropsMalformedItems(t *testing.T) {
	// Missing title, missing body, and blank-only fields are all dropped;
	// the valid record survives.
	raw := `[
		{"title":"Keep","body":"This one is fine"},
		{"title":"","body":"no title"},
		{"title":"no body"},
		{"title":"   ","body":"   "}
	]`

	got, err := ParseInsights(raw, 10)
	require.Error(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Keep", got[0].Title)
}

func TestParseInsightsNonArrayFallsBackEmpty(t *testing.T) {
	for _, raw := range []string{
		"",
		"Sorry, I could not produce insights today.",
		`{"title":"A","body":"B"}`,
		"```\ntotal garbage\n```",
	} {
		got, err := ParseInsights(raw, 10)
		require.Error(t, err, "input: %q", raw)
		require.NotNil(t, got)
		require.Empty(t, got)
	}
}

func TestParseInsightsCapsList(t *testing.T) {
	raw := `[
		{"title":"1","body":"b"},
		{"title":"2","body":"b"},
		{"title":"3","body":"b"},
		{"title":"4","body":"b"}
	]`

	got, err := ParseInsights(raw, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "1", got[0].Title)
	require.Equal(t, "2", got[1].Title)
}

package fingerprint_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/pulselog-lab/pulselog/internal/api/v1"
	"github.com/pulselog-lab/pulselog/internal/core/storage/memory"
	"github.com/pulselog-lab/pulselog/internal/fingerprint"
)

func evt(subjectID string, at time.Time, kind v1.Kind, value float64) *v1.Event {
	return &v1.Event{
		SubjectID:  subjectID,
		Kind:       kind,
		OccurredAt: at,
		Value:      decimal.NewFromFloat(value),
	}
}

func TestHashOrderIndependence(t *testing.T) {
	a := evt("s1", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), v1.KindMood, 4)
	b := evt("s1", time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC), v1.KindMood, 6)
	c := evt("s1", time.Date(2026, 2, 12, 9, 0, 0, 0, time.UTC), v1.KindHabit, 1)

	h1 := fingerprint.Hash([]*v1.Event{a, b, c})
	h2 := fingerprint.Hash([]*v1.Event{c, a, b})
	require.Equal(t, h1, h2)
}

func TestHashTimezoneNormalization(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	utc := evt("s1", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), v1.KindMood, 4)
	shifted := evt("s1", time.Date(2026, 2, 10, 11, 0, 0, 0, loc), v1.KindMood, 4)

	require.Equal(t,
		fingerprint.Hash([]*v1.Event{utc}),
		fingerprint.Hash([]*v1.Event{shifted}))
}

func TestHashSensitivity(t *testing.T) {
	base := []*v1.Event{evt("s1", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), v1.KindMood, 4)}
	h := fingerprint.Hash(base)

	changedValue := []*v1.Event{evt("s1", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), v1.KindMood, 5)}
	require.NotEqual(t, h, fingerprint.Hash(changedValue))

	changedTime := []*v1.Event{evt("s1", time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC), v1.KindMood, 4)}
	require.NotEqual(t, h, fingerprint.Hash(changedTime))

	added := append(base, evt("s1", time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC), v1.KindMood, 4))
	require.NotEqual(t, h, fingerprint.Hash(added))
}

func TestGateCheckMissingFingerprint(t *testing.T) {
	gate := fingerprint.NewGate(memory.NewFingerprintStore())

	recompute, cached, err := gate.Check(context.Background(), "s1", nil)
	require.NoError(t, err)
	require.True(t, recompute)
	require.Nil(t, cached)
}

func TestGateCommitThenCheck(t *testing.T) {
	ctx := context.Background()
	gate := fingerprint.NewGate(memory.NewFingerprintStore())

	events := []*v1.Event{
		evt("s1", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), v1.KindMood, 4),
		evt("s1", time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC), v1.KindMood, 6),
	}
	payload := json.RawMessage(`[{"title":"t","body":"b"}]`)

	fp, err := gate.Commit(ctx, "s1", events, payload)
	require.NoError(t, err)
	require.NotEmpty(t, fp.Hash)

	// Same dataset: short-circuit with the cached payload.
	recompute, cached, err := gate.Check(ctx, "s1", events)
	require.NoError(t, err)
	require.False(t, recompute)
	require.NotNil(t, cached)
	require.JSONEq(t, string(payload), string(cached.Payload))

	// Dataset grew: recompute required.
	grown := append(events, evt("s1", time.Date(2026, 2, 12, 9, 0, 0, 0, time.UTC), v1.KindMood, 2))
	recompute, cached, err = gate.Check(ctx, "s1", grown)
	require.NoError(t, err)
	require.True(t, recompute)
	require.Nil(t, cached)
}

func TestGateSubjectsAreIndependent(t *testing.T) {
	ctx := context.Background()
	gate := fingerprint.NewGate(memory.NewFingerprintStore())

	events := []*v1.Event{evt("s1", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), v1.KindMood, 4)}
	_, err := gate.Commit(ctx, "s1", events, nil)
	require.NoError(t, err)

	recompute, _, err := gate.Check(ctx, "s2", events)
	require.NoError(t, err)
	require.True(t, recompute)
}

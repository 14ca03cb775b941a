// Package fingerprint gates expensive downstream recomputation behind a
// content hash of the input dataset. It is an optimization, not a correctness
// mechanism: a collision or a canonicalization miss costs one redundant
// recompute or a stale-looking response, never corrupt data.
package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	v1 "github.com/pulselog-lab/pulselog/internal/api/v1"
	"github.com/pulselog-lab/pulselog/internal/core/storage"
)

// Fingerprint is the stored dataset hash for one subject, together with the
// payload computed from that dataset. One row per subject; overwritten on
// every change, deleted only with the subject itself.
type Fingerprint struct {
	SubjectID  string          `json:"subject_id"`
	Hash       string          `json:"hash"`
	ComputedAt time.Time       `json:"computed_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Store persists fingerprints, one per subject.
type Store interface {
	Get(ctx context.Context, subjectID string) (*Fingerprint, error)
	Upsert(ctx context.Context, fp *Fingerprint) error
	Delete(ctx context.Context, subjectID string) error
}

// Gate decides whether a subject's expensive downstream step must re-run.
type Gate struct {
	store Store
	nowFn func() time.Time
}

// NewGate creates a gate over the given store.
func NewGate(store Store) *Gate {
	return &Gate{
		store: store,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// Check compares the current dataset against the stored fingerprint.
// Returns recompute=true on mismatch or absence; on a match the cached
// fingerprint (with its payload) is returned and the caller short-circuits.
func (g *Gate) Check(ctx context.Context, subjectID string, events []*v1.Event) (recompute bool, cached *Fingerprint, err error) {
	hash := Hash(events)

	stored, err := g.store.Get(ctx, subjectID)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("fingerprint lookup for %s: %w", subjectID, err)
	}

	if stored.Hash != hash {
		return true, nil, nil
	}
	return false, stored, nil
}

// Commit hashes the dataset and upserts the fingerprint with the freshly
// computed payload. Concurrent commits for the same subject converge: the
// later upsert overwrites with an equal or newer value.
func (g *Gate) Commit(ctx context.Context, subjectID string, events []*v1.Event, payload json.RawMessage) (*Fingerprint, error) {
	fp := &Fingerprint{
		SubjectID:  subjectID,
		Hash:       Hash(events),
		ComputedAt: g.nowFn(),
		Payload:    payload,
	}
	if err := g.store.Upsert(ctx, fp); err != nil {
		return nil, fmt.Errorf("fingerprint commit for %s: %w", subjectID, err)
	}
	return fp, nil
}

// Hash computes the SHA-256 digest of the canonical serialization of the
// event set. Semantically identical datasets hash identically regardless of
// retrieval order: events are sorted by occurrence time then value, and
// timestamps are rendered in fixed UTC RFC3339Nano form.
func Hash(events []*v1.Event) string {
	lines := make([]string, 0, len(events))
	for _, evt := range events {
		lines = append(lines, fmt.Sprintf("%s|%s|%s",
			evt.OccurredAt.UTC().Format(time.RFC3339Nano),
			string(evt.Kind),
			evt.Value.String(),
		))
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return fmt.Sprintf("%x", sum)
}

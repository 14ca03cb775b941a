package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pulselog-lab/pulselog/internal/core/storage"
	"github.com/pulselog-lab/pulselog/internal/fingerprint"
)

// FingerprintAdapter implements fingerprint.Store using PostgreSQL.
// One row per subject, written with a convergent upsert: last write wins,
// which is safe because fingerprints are idempotent, not counters.
type FingerprintAdapter struct {
	db *sql.DB
}

// NewFingerprintAdapter creates a new FingerprintAdapter sharing the given connection.
func NewFingerprintAdapter(db *sql.DB) *FingerprintAdapter {
	return &FingerprintAdapter{db: db}
}

// Get returns the stored fingerprint for a subject, or storage.ErrNotFound.
func (a *FingerprintAdapter) Get(ctx context.Context, subjectID string) (*fingerprint.Fingerprint, error) {
	var fp fingerprint.Fingerprint
	var payload []byte

	err := a.db.QueryRowContext(ctx, queryGetFingerprint, subjectID).Scan(
		&fp.SubjectID,
		&fp.Hash,
		&fp.ComputedAt,
		&payload,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fingerprint for %s: %w", subjectID, err)
	}

	if len(payload) > 0 {
		fp.Payload = json.RawMessage(payload)
	}
	return &fp, nil
}

// Upsert writes the fingerprint row, overwriting any previous hash and payload.
func (a *FingerprintAdapter) Upsert(ctx context.Context, fp *fingerprint.Fingerprint) error {
	var payload []byte
	if len(fp.Payload) > 0 {
		payload = []byte(fp.Payload)
	}

	if _, err := a.db.ExecContext(ctx, queryUpsertFingerprint,
		fp.SubjectID,
		fp.Hash,
		fp.ComputedAt,
		payload,
	); err != nil {
		return fmt.Errorf("upsert fingerprint for %s: %w", fp.SubjectID, err)
	}

	slog.Debug("[Postgres] Upserted fingerprint",
		"subject_id", fp.SubjectID,
		"hash", fp.Hash)
	return nil
}

// Delete removes a subject's fingerprint. Called only when the subject itself
// is deleted.
func (a *FingerprintAdapter) Delete(ctx context.Context, subjectID string) error {
	if _, err := a.db.ExecContext(ctx, queryDeleteFingerprint, subjectID); err != nil {
		return fmt.Errorf("delete fingerprint for %s: %w", subjectID, err)
	}
	return nil
}

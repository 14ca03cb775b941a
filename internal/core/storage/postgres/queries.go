package postgres

// SQL queries for event and fingerprint storage.

const (
	// querySaveEvent inserts an event.
	// The partial unique index on (subject_id, period_key) WHERE kind='habit'
	// enforces one habit completion per canonical period; ON CONFLICT DO
	// NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	querySaveEvent = `
		INSERT INTO events (
			id, subject_id, kind, occurred_at, ingested_at,
			period_key, value, note, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (subject_id, period_key) WHERE kind = 'habit' DO NOTHING
		RETURNING id
	`

	// queryListEvents fetches a subject's events in an occurred_at range,
	// ascending. The analytics engine consumes this ordering directly.
	queryListEvents = `
		SELECT
			id, subject_id, kind, occurred_at, ingested_at,
			period_key, value, note, metadata
		FROM events
		WHERE subject_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		ORDER BY occurred_at ASC
	`

	// queryHasEventInPeriod is the atomic point lookup backing the reminder
	// sweep's "already logged this period" check.
	queryHasEventInPeriod = `
		SELECT EXISTS (
			SELECT 1 FROM events
			WHERE subject_id = $1 AND period_key = $2
		)
	`

	// queryUpsertFingerprint keeps one fingerprint row per subject.
	// Racing commits converge: the later write overwrites with an equal or
	// newer value, which is harmless for idempotent fingerprints.
	queryUpsertFingerprint = `
		INSERT INTO fingerprints (subject_id, hash, computed_at, cached_payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id) DO UPDATE SET
			hash           = EXCLUDED.hash,
			computed_at    = EXCLUDED.computed_at,
			cached_payload = EXCLUDED.cached_payload
	`

	queryGetFingerprint = `
		SELECT subject_id, hash, computed_at, cached_payload
		FROM fingerprints
		WHERE subject_id = $1
	`

	queryDeleteFingerprint = `DELETE FROM fingerprints WHERE subject_id = $1`
)

package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	v1 "github.com/pulselog-lab/pulselog/internal/api/v1"
)

// marshalMetadata marshals an event's metadata to JSON.
// Nil or empty metadata produces nil (SQL NULL) rather than a JSON "null" string.
func marshalMetadata(event *v1.Event) ([]byte, error) {
	if len(event.Metadata) == 0 {
		return nil, nil
	}
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return metadataJSON, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into an Event struct.
// The numeric value column is scanned as text and parsed into a decimal to
// avoid float drift. Compatible with both sql.Row and sql.Rows.
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event
	var kind string
	var valueStr string
	var metadataJSON []byte

	err := row.Scan(
		&evt.ID,
		&evt.SubjectID,
		&kind,
		&evt.OccurredAt,
		&evt.IngestedAt,
		&evt.PeriodKey,
		&valueStr,
		&evt.Note,
		&metadataJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	evt.Kind = v1.Kind(kind)

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event value %q: %w", valueStr, err)
	}
	evt.Value = value

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &evt.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &evt, nil
}

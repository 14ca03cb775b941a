package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	v1 "github.com/pulselog-lab/pulselog/internal/api/v1"
	httperr "github.com/pulselog-lab/pulselog/internal/core/errors"
	"github.com/pulselog-lab/pulselog/internal/core/period"
	"github.com/pulselog-lab/pulselog/internal/core/storage"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist event"
	msgDuplicateEvent = "Event already logged for this period"
)

// ingestionError carries the structured HTTP error shape from a helper back to
// the orchestrator. Helpers return this instead of writing to gin.Context
// directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// logRequest is the public wire shape of a logged event.
type logRequest struct {
	Kind       v1.Kind           `json:"kind"`
	OccurredAt time.Time         `json:"occurred_at"`
	Value      decimal.Decimal   `json:"value"`
	Note       string            `json:"note"`
	Metadata   map[string]string `json:"metadata"`
}

// IngestHandler handles POST /v1/subjects/:subject_id/events.
func (s *Service) IngestHandler(c *gin.Context) {
	var uri struct {
		SubjectID string `uri:"subject_id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Invalid path parameters",
			details:    err.Error(),
		})
		return
	}

	evt, payloadSize, err := s.parseEvent(c, uri.SubjectID)
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Info("Received Event",
		"event_id", evt.ID,
		"subject_id", evt.SubjectID,
		"kind", evt.Kind,
		"period_key", evt.PeriodKey,
		"payload_size", payloadSize)

	if err := s.persistEvent(c.Request.Context(), evt); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "created", "id": evt.ID})
}

// parseEvent reads the raw request body, binds it, and stamps the server-side
// fields: ID, IngestedAt and the canonical period key.
func (s *Service) parseEvent(c *gin.Context, subjectID string) (*v1.Event, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	// Habit completions default to 1 when the client omits a value.
	if req.Kind == v1.KindHabit && req.Value.IsZero() {
		req.Value = decimal.NewFromInt(1)
	}

	evt := &v1.Event{
		ID:         uuid.NewString(),
		SubjectID:  subjectID,
		Kind:       req.Kind,
		OccurredAt: req.OccurredAt,
		IngestedAt: time.Now().UTC(),
		Value:      req.Value,
		Note:       req.Note,
		Metadata:   req.Metadata,
	}

	if err := evt.Validate(); err != nil {
		slog.Warn("Envelope validation failed", "error", err, "subject_id", subjectID)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    err.Error(),
		}
	}

	// Habit series bucket by day; the week-period variant shares the same
	// daily key, so a weekly habit still collides within its logged day and
	// the analytics layer renormalizes to weeks on read.
	evt.PeriodKey = period.Normalize(evt.OccurredAt.UTC(), period.Day).Key

	return evt, len(bodyBytes), nil
}

// persistEvent saves the event to the backing store.
func (s *Service) persistEvent(ctx context.Context, evt *v1.Event) *ingestionError {
	if err := s.store.SaveEvent(ctx, evt); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("Duplicate event rejected",
				"subject_id", evt.SubjectID,
				"period_key", evt.PeriodKey)
			return &ingestionError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateError,
				message:    msgDuplicateEvent,
			}
		}

		slog.Error("Failed to persist event", "error", err, "event_id", evt.ID)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}

	return nil
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}

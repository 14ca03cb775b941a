package errors

import (
	stderrors "errors"
	"fmt"
)

// HTTP error_type values returned in error response bodies.
const (
	HttpInternalError     = "internal_error"
	HttpInvalidJsonError  = "invalid_json"
	HttpInvalidRangeError = "invalid_range"
	HttpDuplicateError    = "duplicate_event"
	HttpNotFoundError     = "not_found"
)

// ErrorResponse is the error response body for API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Kind tags an analytics failure with its category so callers can dispatch
// exhaustively instead of sniffing strings or ad hoc code fields.
type Kind int

const (
	// KindInsufficientData marks a result below a component's documented
	// minimum sample size. Callers render "keep logging", not a failure page.
	KindInsufficientData Kind = iota

	// KindInvalidRange marks a window that exceeds a hard cap or whose end
	// precedes its start. Rejected before any computation runs.
	KindInvalidRange

	// KindMalformedOutput marks downstream summarizer output that did not
	// parse as the expected shape. Recovered locally, never propagated.
	KindMalformedOutput
)

func (k Kind) String() string {
	switch k {
	case KindInsufficientData:
		return "insufficient_data"
	case KindInvalidRange:
		return "invalid_range"
	case KindMalformedOutput:
		return "malformed_output"
	default:
		return "unknown"
	}
}

// AnalyticsError is a tagged error carrying structured context.
type AnalyticsError struct {
	Kind    Kind
	Message string
	Context map[string]interface{}
}

func (e *AnalyticsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// InvalidRangef builds a KindInvalidRange error with a specific, actionable message.
func InvalidRangef(format string, args ...interface{}) *AnalyticsError {
	return &AnalyticsError{Kind: KindInvalidRange, Message: fmt.Sprintf(format, args...)}
}

// InsufficientDataf builds a KindInsufficientData error.
func InsufficientDataf(format string, args ...interface{}) *AnalyticsError {
	return &AnalyticsError{Kind: KindInsufficientData, Message: fmt.Sprintf(format, args...)}
}

// MalformedOutputf builds a KindMalformedOutput error.
func MalformedOutputf(format string, args ...interface{}) *AnalyticsError {
	return &AnalyticsError{Kind: KindMalformedOutput, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, if it is an AnalyticsError.
func KindOf(err error) (Kind, bool) {
	var ae *AnalyticsError
	if stderrors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown backend, provider or method.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Model-based detection and email drafting are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrDocumentTooLarge indicates the uploaded buffer exceeds the configured bound.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrRuleNotFound indicates an unknown pattern rule ID.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrMalformedStructure indicates a PDF whose object structure failed
	// validation. Extraction is still attempted on a best-effort basis.
	ErrMalformedStructure = errors.New("malformed PDF structure")

	// ErrPersistence indicates an analysis could not be saved.
	// The in-memory result is still valid when this is returned.
	ErrPersistence = errors.New("persistence failed")
)

// ExtractionError reports an unreadable or corrupt source document.
// Partial holds whatever page text could be recovered before the failure.
type ExtractionError struct {
	Backend string
	Partial []string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("extraction failed: %v", e.Err)
	}
	return fmt.Sprintf("extraction failed (%s): %v", e.Backend, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ModelTimeoutError reports that the model call exceeded its deadline.
// Callers may retry; the pipeline never retries internally.
type ModelTimeoutError struct {
	Timeout time.Duration
}

func (e *ModelTimeoutError) Error() string {
	return fmt.Sprintf("model call timed out after %s", e.Timeout)
}

// Unwrap lets errors.Is(err, context.DeadlineExceeded) succeed.
func (e *ModelTimeoutError) Unwrap() error { return context.DeadlineExceeded }

// ModelResponseError reports model output that is not the expected JSON.
// Raw carries the untouched response text for diagnostics.
type ModelResponseError struct {
	Raw string
	Err error
}

func (e *ModelResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *ModelResponseError) Unwrap() error { return e.Err }

// ValidationError reports an email draft missing a mandatory structural field.
type ValidationError struct {
	Field  string
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("validation failed: questions[%d].%s: %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// DetectorError wraps a failure inside a single detector.
// It is reported as a warning and never aborts the analysis.
type DetectorError struct {
	Detector string
	Err      error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %s: %v", e.Detector, e.Err)
}

func (e *DetectorError) Unwrap() error { return e.Err }

// IsPipelineFatal reports whether err must abort the whole analysis rather
// than being downgraded to a detector warning.
func IsPipelineFatal(err error) bool {
	if err == nil {
		return false
	}
	var (
		extractErr  *ExtractionError
		timeoutErr  *ModelTimeoutError
		responseErr *ModelResponseError
	)
	switch {
	case errors.As(err, &extractErr), errors.As(err, &timeoutErr), errors.As(err, &responseErr):
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, ErrLLMUnavailable):
		return true
	default:
		return false
	}
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrDocumentTooLarge", ErrDocumentTooLarge},
		{"ErrRuleNotFound", ErrRuleNotFound},
		{"ErrPersistence", ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

func TestExtractionError(t *testing.T) {
	cause := errors.New("bad xref")
	err := &ExtractionError{Backend: "native", Partial: []string{"page one"}, Err: cause}

	assert.Equal(t, "extraction failed (native): bad xref", err.Error())
	assert.ErrorIs(t, err, cause)

	var target *ExtractionError
	wrapped := fmt.Errorf("analyse: %w", err)
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, []string{"page one"}, target.Partial)

	noBackend := &ExtractionError{Err: cause}
	assert.Equal(t, "extraction failed: bad xref", noBackend.Error())
}

func TestModelTimeoutError(t *testing.T) {
	err := &ModelTimeoutError{Timeout: 120 * time.Second}

	assert.Equal(t, "model call timed out after 2m0s", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestModelResponseError(t *testing.T) {
	cause := errors.New("unexpected token")
	err := &ModelResponseError{Raw: "not json", Err: cause}

	assert.Contains(t, err.Error(), "malformed model response")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "not json", err.Raw)
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "indexed field",
			err:  &ValidationError{Field: "type", Index: 2, Reason: "missing"},
			want: "validation failed: questions[2].type: missing",
		},
		{
			name: "top level field",
			err:  &ValidationError{Field: "subject", Index: -1, Reason: "empty"},
			want: "validation failed: subject: empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestDetectorError(t *testing.T) {
	cause := errors.New("boom")
	err := &DetectorError{Detector: "patterns", Err: cause}

	assert.Equal(t, "detector patterns: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsPipelineFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"extraction", &ExtractionError{Err: errors.New("x")}, true},
		{"wrapped extraction", fmt.Errorf("wrap: %w", &ExtractionError{Err: errors.New("x")}), true},
		{"model timeout", &ModelTimeoutError{Timeout: time.Second}, true},
		{"model response", &ModelResponseError{Err: errors.New("x")}, true},
		{"cancelled", context.Canceled, true},
		{"llm unavailable", ErrLLMUnavailable, true},
		{"detector", &DetectorError{Detector: "numbering", Err: errors.New("x")}, false},
		{"plain", errors.New("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPipelineFatal(tt.err))
		})
	}
}

package driven

import (
	"context"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// Detector scans a document and reports issues.
// Detectors share only read access to the document and may run concurrently.
type Detector interface {
	// Name returns the detector name for logging and configuration.
	Name() string

	// Detect returns issues in document scan order.
	// A returned error is treated as a detector-level failure unless
	// domain.IsPipelineFatal reports otherwise.
	Detect(ctx context.Context, doc *domain.Document) ([]domain.Issue, error)
}

// DetectorPipeline runs a set of detectors over one document.
type DetectorPipeline interface {
	// Detect runs every detector and merges their output in registration order.
	Detect(ctx context.Context, doc *domain.Document) (*DetectionResult, error)
}

// DetectionResult is the merged output of a pipeline run.
type DetectionResult struct {
	// Issues are the merged issues, grouped by detector in registration order.
	Issues []domain.Issue

	// Warnings collects detector-level failures that were skipped.
	Warnings []error
}

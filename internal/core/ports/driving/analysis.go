package driving

import (
	"context"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// AnalysisService analyses uploaded PDFs and gives read access to
// previously saved analyses.
type AnalysisService interface {
	// Analyze runs the pipeline selected by req.Method over req.Data.
	// A pipeline-level failure returns an error; zero issues is a success.
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)

	// Get retrieves a saved analysis.
	Get(ctx context.Context, id string) (*domain.AnalysisRecord, error)

	// List returns saved analyses, newest first.
	List(ctx context.Context, limit int) ([]domain.RecordSummary, error)
}

// AnalyzeRequest describes one analysis.
type AnalyzeRequest struct {
	// FileName is the uploaded file name.
	FileName string

	// Data is the raw PDF content.
	Data []byte

	// Method overrides the configured processing method when non-nil.
	Method domain.ProcessingMethod

	// Screenshots enables page screenshots for issues.
	Screenshots bool

	// Deduplicate collapses identical (page, type, original) issues.
	Deduplicate bool

	// NoSave skips persistence.
	NoSave bool
}

// AnalyzeResponse is the outcome of a successful analysis.
type AnalyzeResponse struct {
	// Result is the merged analysis.
	Result *domain.AnalysisResult

	// Record is the persisted record, also set when saving failed.
	Record *domain.AnalysisRecord

	// Saved reports whether the record was persisted.
	Saved bool

	// SaveError holds the persistence failure, if any.
	SaveError error

	// Approximate is set when page numbers are estimates.
	Approximate bool

	// PageCount is the number of pages extracted.
	PageCount int

	// Warnings lists detector-level failures that were skipped.
	Warnings []string
}

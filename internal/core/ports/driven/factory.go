package driven

import "github.com/custodia-labs/docaudit/internal/core/domain"

// ExtractorBuilder creates a PageExtractor from analysis settings.
type ExtractorBuilder func(settings domain.AnalysisSettings) (PageExtractor, error)

// ExtractorFactory creates extractors by backend name.
// It maintains a registry of backends and their builders.
type ExtractorFactory interface {
	// Create returns the extractor for the given backend.
	// Returns ErrUnsupportedType if the backend is unknown.
	Create(backend domain.ExtractorBackend, settings domain.AnalysisSettings) (PageExtractor, error)

	// Register adds an extractor builder for the given backend.
	Register(backend domain.ExtractorBackend, builder ExtractorBuilder)

	// SupportedTypes returns all registered backends.
	SupportedTypes() []domain.ExtractorBackend
}

package driven

import (
	"context"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// PageExtractor converts raw PDF bytes into per-page plain text.
//
// Implementations must return best-effort partial text for damaged but
// parseable documents. A buffer that cannot be decoded at all yields a
// *domain.ExtractionError.
type PageExtractor interface {
	// Name returns the backend name for logging and configuration.
	Name() string

	// Extract decodes raw into a Document. The returned pages are in
	// physical order; Approximate is set when paging was synthesised.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// AvailabilityChecker is implemented by extractors that depend on an
// external tool and can report whether it is installed.
type AvailabilityChecker interface {
	CheckAvailable() error
}

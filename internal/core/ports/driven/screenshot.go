package driven

import (
	"context"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// ScreenshotService renders an image of a page and returns a reference to it.
// Callers treat failure as "no screenshot" and never abort on it.
type ScreenshotService interface {
	// Capture renders 1-indexed page of doc. raw is the original upload.
	Capture(ctx context.Context, raw *domain.RawDocument, doc *domain.Document, page int) (string, error)
}

// ObjectStore stores rendered images and returns a retrievable reference.
type ObjectStore interface {
	// Put writes data under key and returns a URL or path for it.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

package screenshot

import (
	"fmt"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// NewObjectStore builds the object store named by settings.
func NewObjectStore(settings domain.ScreenshotSettings) (driven.ObjectStore, error) {
	switch settings.Backend {
	case domain.ScreenshotS3:
		return NewS3Store(settings.S3)
	case domain.ScreenshotFilesystem, "":
		return NewFileStore(settings.Dir)
	default:
		return nil, fmt.Errorf("%w: screenshot backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}

// NewFromSettings builds a renderer backed by the configured object store.
func NewFromSettings(settings domain.ScreenshotSettings, opts ...Option) (*Renderer, error) {
	store, err := NewObjectStore(settings)
	if err != nil {
		return nil, err
	}
	return NewRenderer(store, opts...), nil
}

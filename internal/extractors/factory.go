package extractors

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ExtractorFactory = (*Factory)(nil)

// Factory maps backend names to their builders.
type Factory struct {
	mu       sync.RWMutex
	builders map[domain.ExtractorBackend]driven.ExtractorBuilder
}

// NewFactory creates an empty factory. Call RegisterDefaults to add the
// built-in backends.
func NewFactory() *Factory {
	return &Factory{
		builders: make(map[domain.ExtractorBackend]driven.ExtractorBuilder),
	}
}

// Register adds an extractor builder for the given backend.
func (f *Factory) Register(backend domain.ExtractorBackend, builder driven.ExtractorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[backend] = builder
}

// Create builds the extractor for backend.
func (f *Factory) Create(backend domain.ExtractorBackend, settings domain.AnalysisSettings) (driven.PageExtractor, error) {
	f.mu.RLock()
	builder, ok := f.builders[backend]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: extractor %q", domain.ErrUnsupportedType, backend)
	}
	return builder(settings)
}

// SupportedTypes returns all registered backends, sorted.
func (f *Factory) SupportedTypes() []domain.ExtractorBackend {
	f.mu.RLock()
	defer f.mu.RUnlock()
	types := make([]domain.ExtractorBackend, 0, len(f.builders))
	for b := range f.builders {
		types = append(types, b)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

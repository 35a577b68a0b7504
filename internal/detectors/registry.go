package detectors

import (
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// Dependencies are the collaborators a detector builder may need.
// Builders ignore what they do not use.
type Dependencies struct {
	// Rules is the live pattern rule set.
	Rules *domain.RuleSet

	// LLM backs the model detector.
	LLM driven.LLMService

	// Prompts optionally overrides the model instruction.
	Prompts driven.PromptStore

	// Raw is the uploaded file, attached for providers that accept files.
	Raw *domain.RawDocument

	// ModelTimeout bounds the model call. Zero uses the default.
	ModelTimeout time.Duration
}

// BuilderFunc creates a Detector from its dependencies and generic config.
// Config is a map of detector-specific settings parsed from user config.
type BuilderFunc func(deps Dependencies, cfg map[string]any) (driven.Detector, error)

// Registry maps detector names to their builders.
// It allows dynamic construction of detectors from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new detector registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a detector builder to the registry.
// Name should be unique and match the detector's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a detector by name with the given config.
// Returns error if the detector name is not registered.
func (r *Registry) Build(name string, deps Dependencies, cfg map[string]any) (driven.Detector, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: detector %s", domain.ErrUnsupportedType, name)
	}
	return builder(deps, cfg)
}

// BuildPipeline builds the named detectors, in order, into a pipeline.
func (r *Registry) BuildPipeline(names []string, deps Dependencies, cfg domain.DetectorConfig) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range names {
		det, err := r.Build(name, deps, cfg.GetDetectorConfig(name))
		if err != nil {
			return nil, err
		}
		p.Add(det)
	}
	return p, nil
}

// Has returns true if a detector with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered detector names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

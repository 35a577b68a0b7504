package domain

import (
	"fmt"
	"strings"
)

// ProcessingMethod selects how a document is analysed. The set of
// variants is closed: only types in this package implement it.
type ProcessingMethod interface {
	// Name returns the stable identifier used in config and records.
	Name() string

	processingMethod()
}

// Method names.
const (
	MethodCompanyLLM    = "company_llm"
	MethodExternalAI    = "external_ai"
	MethodLocalPatterns = "local_patterns"
	MethodManualOnly    = "manual_only"
)

// CompanyLLM sends the document to the organisation's own model endpoint.
type CompanyLLM struct {
	Model string
}

// ExternalAI sends the document to a third-party provider. IncludeRules
// also runs the local rule detectors and merges both outputs.
type ExternalAI struct {
	Provider     AIProvider
	Model        string
	IncludeRules bool
}

// LocalPatterns runs only the rule-based detectors. No data leaves the host.
type LocalPatterns struct{}

// ManualOnly performs no automatic detection; the result is always empty
// and the document is kept for human review.
type ManualOnly struct{}

func (CompanyLLM) Name() string    { return MethodCompanyLLM }
func (ExternalAI) Name() string    { return MethodExternalAI }
func (LocalPatterns) Name() string { return MethodLocalPatterns }
func (ManualOnly) Name() string    { return MethodManualOnly }

func (CompanyLLM) processingMethod()    {}
func (ExternalAI) processingMethod()    {}
func (LocalPatterns) processingMethod() {}
func (ManualOnly) processingMethod()    {}

// AllProcessingMethods returns the method names.
func AllProcessingMethods() []string {
	return []string{MethodCompanyLLM, MethodExternalAI, MethodLocalPatterns, MethodManualOnly}
}

// ParseProcessingMethod returns the zero-configured variant for name.
// Callers fill in model details from settings.
func ParseProcessingMethod(name string) (ProcessingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MethodCompanyLLM:
		return CompanyLLM{}, nil
	case MethodExternalAI:
		return ExternalAI{}, nil
	case MethodLocalPatterns, "":
		return LocalPatterns{}, nil
	case MethodManualOnly:
		return ManualOnly{}, nil
	default:
		return nil, fmt.Errorf("%w: processing method %q", ErrUnsupportedType, name)
	}
}

// MethodOverrides customises the method parsed by BuildProcessingMethod.
// Fields that do not apply to the parsed variant are ignored.
type MethodOverrides struct {
	Provider     string
	Model        string
	IncludeRules bool
}

// BuildProcessingMethod parses name and applies the overrides.
func BuildProcessingMethod(name string, o MethodOverrides) (ProcessingMethod, error) {
	method, err := ParseProcessingMethod(name)
	if err != nil {
		return nil, err
	}

	switch m := method.(type) {
	case ExternalAI:
		if o.Provider != "" {
			p := AIProvider(strings.ToLower(strings.TrimSpace(o.Provider)))
			if !p.IsValid() {
				return nil, fmt.Errorf("%w: provider %q", ErrUnsupportedType, o.Provider)
			}
			m.Provider = p
		}
		m.Model = o.Model
		m.IncludeRules = o.IncludeRules
		return m, nil
	case CompanyLLM:
		m.Model = o.Model
		return m, nil
	default:
		return method, nil
	}
}

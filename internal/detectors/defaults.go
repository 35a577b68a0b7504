package detectors

import (
	"fmt"
	"time"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/detectors/model"
	"github.com/custodia-labs/docaudit/internal/detectors/numbering"
	"github.com/custodia-labs/docaudit/internal/detectors/patterns"
	"github.com/custodia-labs/docaudit/internal/detectors/sections"
)

// RuleBased lists the local detectors in their default run order.
var RuleBased = []string{sections.Name, numbering.Name, patterns.Name}

// RegisterDefaults registers all built-in detectors with the registry.
// Call this during application initialisation to enable standard detectors.
func RegisterDefaults(r *Registry) {
	r.Register(sections.Name, buildSections)
	r.Register(numbering.Name, buildNumbering)
	r.Register(patterns.Name, buildPatterns)
	r.Register(model.Name, buildModel)
}

// buildSections creates the cross-reference detector.
// Supported config keys:
//   - issue_type (string): cross_reference or reference (default: cross_reference)
//   - context_radius (int): Characters of context either side (default: 40)
func buildSections(_ Dependencies, cfg map[string]any) (driven.Detector, error) {
	var opts []sections.Option

	if cfg != nil {
		if t, ok := cfg["issue_type"].(string); ok && t != "" {
			issueType := domain.ParseIssueType(t)
			if issueType != domain.IssueTypeCrossReference && issueType != domain.IssueTypeReference {
				return nil, fmt.Errorf("%w: sections issue_type %q", domain.ErrInvalidInput, t)
			}
			opts = append(opts, sections.WithIssueType(issueType))
		}
		if radius := getIntFromConfig(cfg, "context_radius"); radius > 0 {
			opts = append(opts, sections.WithContextRadius(radius))
		}
	}

	return sections.New(opts...), nil
}

func buildNumbering(_ Dependencies, _ map[string]any) (driven.Detector, error) {
	return numbering.New(), nil
}

// buildPatterns creates the rule-table detector over deps.Rules.
// Supported config keys:
//   - min_severity (string): low, medium or high (default: low)
//   - context_radius (int): Characters of context either side (default: 50)
//   - max_matches (int): Cap on matches per rule (default: 200)
func buildPatterns(deps Dependencies, cfg map[string]any) (driven.Detector, error) {
	var opts []patterns.Option

	if cfg != nil {
		if s, ok := cfg["min_severity"].(string); ok && s != "" {
			sev, err := domain.ParseSeverity(s)
			if err != nil {
				return nil, err
			}
			opts = append(opts, patterns.WithMinSeverity(sev))
		}
		if radius := getIntFromConfig(cfg, "context_radius"); radius > 0 {
			opts = append(opts, patterns.WithContextRadius(radius))
		}
		if limit := getIntFromConfig(cfg, "max_matches"); limit > 0 {
			opts = append(opts, patterns.WithMaxMatches(limit))
		}
	}

	return patterns.New(deps.Rules, opts...), nil
}

// buildModel creates the language model detector. deps.LLM is required.
// Supported config keys:
//   - timeout_seconds (int): Overrides deps.ModelTimeout
//   - max_tokens (int): Response token budget (default: 8192)
func buildModel(deps Dependencies, cfg map[string]any) (driven.Detector, error) {
	if deps.LLM == nil {
		return nil, fmt.Errorf("%w: model detector needs a configured provider", domain.ErrLLMUnavailable)
	}

	opts := []model.Option{
		model.WithTimeout(deps.ModelTimeout),
		model.WithAttachment(deps.Raw),
	}
	if deps.Prompts != nil {
		opts = append(opts, model.WithPromptStore(deps.Prompts))
	}
	if cfg != nil {
		if secs := getIntFromConfig(cfg, "timeout_seconds"); secs > 0 {
			opts = append(opts, model.WithTimeout(time.Duration(secs)*time.Second))
		}
		if n := getIntFromConfig(cfg, "max_tokens"); n > 0 {
			opts = append(opts, model.WithMaxTokens(n))
		}
	}

	return model.New(deps.LLM, opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Package patterns runs the declarative regular-expression rule table
// over a document.
package patterns

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/detectors/textspan"
	"github.com/custodia-labs/docaudit/internal/logger"
)

// Name is the detector name.
const Name = "patterns"

// Defaults.
const (
	DefaultContextRadius = 50
	DefaultMaxMatches    = 200
)

// Ensure Detector implements the interface.
var _ driven.Detector = (*Detector)(nil)

// Detector evaluates every enabled rule against the full document text.
// Issues are emitted in rule declaration order, then match order.
type Detector struct {
	rules       *domain.RuleSet
	minSeverity domain.Severity
	radius      int
	maxMatches  int
}

// Option configures the detector.
type Option func(*Detector)

// WithMinSeverity drops rules ranked below sev.
func WithMinSeverity(sev domain.Severity) Option {
	return func(d *Detector) {
		if sev.IsValid() {
			d.minSeverity = sev
		}
	}
}

// WithContextRadius sets the context window radius in runes.
func WithContextRadius(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.radius = n
		}
	}
}

// WithMaxMatches caps the issues reported per rule.
func WithMaxMatches(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxMatches = n
		}
	}
}

// New creates a pattern detector over rules. A nil rule set uses DefaultRules.
func New(rules *domain.RuleSet, opts ...Option) *Detector {
	if rules == nil {
		rules = domain.NewRuleSet(DefaultRules())
	}
	d := &Detector{
		rules:       rules,
		minSeverity: domain.SeverityLow,
		radius:      DefaultContextRadius,
		maxMatches:  DefaultMaxMatches,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the detector name.
func (d *Detector) Name() string {
	return Name
}

// Rules returns the rule set the detector reads from.
func (d *Detector) Rules() *domain.RuleSet {
	return d.rules
}

// Detect joins the pages, runs each enabled rule, and maps every match
// back to its page. A rule that panics is skipped and logged; the other
// rules still run.
func (d *Detector) Detect(ctx context.Context, doc *domain.Document) ([]domain.Issue, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	pm := textspan.Join(doc.Pages, "\n")
	var issues []domain.Issue
	for _, rule := range d.rules.Snapshot() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !rule.Enabled || rule.Pattern == nil || rule.Severity.Rank() < d.minSeverity.Rank() {
			continue
		}
		found, err := d.apply(rule, pm)
		if err != nil {
			logger.Warn("patterns: rule %s skipped: %v", rule.ID, err)
			continue
		}
		issues = append(issues, found...)
	}
	return issues, nil
}

// apply runs one rule. Single-shot rules run the expression once rather
// than looping over matches.
func (d *Detector) apply(rule domain.PatternRule, pm *textspan.PageMap) (issues []domain.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			issues, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	text := pm.Text()
	var locs [][]int
	if rule.Global {
		locs = rule.Pattern.FindAllStringIndex(text, -1)
	} else if loc := rule.Pattern.FindStringIndex(text); loc != nil {
		locs = [][]int{loc}
	}

	for _, loc := range locs {
		if len(issues) >= d.maxMatches {
			logger.Warn("patterns: rule %s stopped after %d matches", rule.ID, d.maxMatches)
			break
		}
		start, end := loc[0], loc[1]
		if start == end {
			continue
		}
		match := text[start:end]
		if rule.Accept != nil && !rule.Accept(match) {
			continue
		}

		page := pm.Page(start)
		lo, hi := pm.Bounds(page)
		issues = append(issues, domain.Issue{
			Page:         page,
			Type:         domain.ParseIssueType(string(rule.Type)),
			Message:      message(rule, match),
			Original:     textspan.Window(text[lo:hi], start-lo, min(end, hi)-lo, d.radius),
			Suggestion:   suggestion(rule, match),
			LocationHint: fmt.Sprintf("Page %d, line %d (%s)", page, pm.LineAt(start), rule.ID),
		})
	}
	return issues, nil
}

func message(rule domain.PatternRule, match string) string {
	if rule.Message != nil {
		return rule.Message(match)
	}
	return fmt.Sprintf("%s: %q", rule.Name, match)
}

func suggestion(rule domain.PatternRule, match string) string {
	if rule.Suggestion != nil {
		return rule.Suggestion(match)
	}
	return "Review and correct"
}

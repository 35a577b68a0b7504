package domain

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Severity ranks how serious a pattern match is.
type Severity string

// Available severities, lowest first.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns an ordinal for comparisons. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// IsValid returns true if the severity is recognised.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// ParseSeverity parses a severity name, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("%w: severity %q", ErrInvalidInput, s)
	}
	return sev, nil
}

// PatternRule is a declarative detection rule. Rules are data: adding one
// never touches detector control flow.
type PatternRule struct {
	ID       string
	Name     string
	Pattern  *regexp.Regexp
	Type     IssueType
	Severity Severity
	Enabled  bool

	// Global runs the pattern over the whole text. When false the rule is
	// single-shot and reports at most its first match.
	Global bool

	// Message builds the issue message from the matched text.
	// Nil falls back to a generic message naming the rule.
	Message func(match string) string

	// Suggestion builds the suggested fix from the matched text.
	// Nil falls back to a generic review suggestion.
	Suggestion func(match string) string

	// Accept filters matches after the regular expression has run, for
	// checks RE2 cannot express such as "the number word disagrees with
	// the digits". Nil accepts every match.
	Accept func(match string) bool
}

// RuleSet holds the rules of a process and lets them be toggled at runtime.
// Detectors take a Snapshot before scanning so toggles never affect an
// analysis that is already running.
type RuleSet struct {
	mu    sync.RWMutex
	rules []PatternRule
	index map[string]int
}

// NewRuleSet creates a rule set. Later rules with a duplicate ID replace
// earlier ones in place.
func NewRuleSet(rules []PatternRule) *RuleSet {
	rs := &RuleSet{index: make(map[string]int, len(rules))}
	for _, r := range rules {
		if i, ok := rs.index[r.ID]; ok {
			rs.rules[i] = r
			continue
		}
		rs.index[r.ID] = len(rs.rules)
		rs.rules = append(rs.rules, r)
	}
	return rs
}

// Snapshot returns a copy of all rules in declaration order.
func (rs *RuleSet) Snapshot() []PatternRule {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]PatternRule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Get returns the rule with the given ID.
func (rs *RuleSet) Get(id string) (PatternRule, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	i, ok := rs.index[id]
	if !ok {
		return PatternRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return rs.rules[i], nil
}

// SetEnabled toggles a rule.
func (rs *RuleSet) SetEnabled(id string, enabled bool) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	i, ok := rs.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	rs.rules[i].Enabled = enabled
	return nil
}

// Disabled returns the IDs of disabled rules in declaration order.
func (rs *RuleSet) Disabled() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var ids []string
	for _, r := range rs.rules {
		if !r.Enabled {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rules)
}

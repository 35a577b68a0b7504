package driving

import "github.com/custodia-labs/docaudit/internal/core/domain"

// RuleService lists and toggles pattern rules at runtime.
type RuleService interface {
	// List returns every rule in declaration order.
	List() []RuleInfo

	// Enable switches a rule on and persists the change.
	Enable(id string) error

	// Disable switches a rule off and persists the change.
	Disable(id string) error
}

// RuleInfo is the display view of a pattern rule.
type RuleInfo struct {
	ID       string
	Name     string
	Type     domain.IssueType
	Severity domain.Severity
	Pattern  string
	Enabled  bool
}

package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
)

// Ensure RuleService implements the interface.
var _ driving.RuleService = (*RuleService)(nil)

// RuleService toggles pattern rules on the shared rule set and records
// disabled rule IDs under rules.disabled.
type RuleService struct {
	rules  *domain.RuleSet
	config driven.ConfigStore
	mu     sync.Mutex
}

// NewRuleService creates a rule service. Rules listed in rules.disabled
// are switched off immediately; unknown IDs are ignored.
func NewRuleService(rules *domain.RuleSet, config driven.ConfigStore) *RuleService {
	s := &RuleService{rules: rules, config: config}
	if config != nil {
		for _, id := range config.GetStringSlice(keyRulesDisabled) {
			_ = rules.SetEnabled(id, false)
		}
	}
	return s
}

// List returns every rule in declaration order.
func (s *RuleService) List() []driving.RuleInfo {
	snapshot := s.rules.Snapshot()
	infos := make([]driving.RuleInfo, 0, len(snapshot))
	for _, r := range snapshot {
		infos = append(infos, driving.RuleInfo{
			ID:       r.ID,
			Name:     r.Name,
			Type:     r.Type,
			Severity: r.Severity,
			Pattern:  r.Pattern.String(),
			Enabled:  r.Enabled,
		})
	}
	return infos
}

// Enable switches a rule on and persists the change.
func (s *RuleService) Enable(id string) error {
	return s.toggle(id, true)
}

// Disable switches a rule off and persists the change.
func (s *RuleService) Disable(id string) error {
	return s.toggle(id, false)
}

func (s *RuleService) toggle(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.rules.Get(id)
	if err != nil {
		return err
	}
	if err := s.rules.SetEnabled(id, enabled); err != nil {
		return err
	}
	if s.config == nil {
		return nil
	}
	if err := s.config.Set(keyRulesDisabled, nonNil(s.rules.Disabled())); err != nil {
		_ = s.rules.SetEnabled(id, previous.Enabled)
		return fmt.Errorf("failed to persist rule %s: %w", id, err)
	}
	return nil
}

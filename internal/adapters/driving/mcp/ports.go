package mcp

import (
	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analysis runs and reads document analyses.
	Analysis driving.AnalysisService

	// Email drafts confirmation emails.
	Email driving.EmailService

	// Rules lists the pattern rules.
	Rules driving.RuleService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Analysis == nil {
		return ErrMissingAnalysisService
	}
	// Email and Rules are optional; their tools report unavailability
	return nil
}

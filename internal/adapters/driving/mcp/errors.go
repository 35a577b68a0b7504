// Package mcp provides an MCP (Model Context Protocol) server adapter for docaudit.
// It lets AI assistants analyse subscription documents, read saved analyses
// and draft confirmation emails.
package mcp

import "errors"

var (
	// ErrMissingAnalysisService is returned when the analysis service is not provided.
	ErrMissingAnalysisService = errors.New("mcp: analysis service is required")

	// ErrEmailUnavailable is returned by compose_email when no email service is wired.
	ErrEmailUnavailable = errors.New("mcp: email drafting is not configured")

	// ErrRulesUnavailable is returned by list_rules when no rule service is wired.
	ErrRulesUnavailable = errors.New("mcp: rule listing is not configured")
)

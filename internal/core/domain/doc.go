// Package domain defines the core business entities for docaudit.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Per-page plain text extracted from an uploaded PDF
//   - Issue: A single finding produced by a detector
//   - AnalysisResult: The merged issue list with its derived summary
//   - PatternRule: A declarative detection rule
//   - EmailDraft / GeneratedEmail: The confirmation email and its checks
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

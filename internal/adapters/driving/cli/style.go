package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// Theme defines the colour palette of terminal reports.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success indicates positive outcomes.
	Success lipgloss.Color

	// Warning indicates caution.
	Warning lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#F38BA8"), // Red
	}
}

// Styles contains the lipgloss styles used by reports.
type Styles struct {
	// Title style for report headers.
	Title lipgloss.Style

	// Subtitle style for page headings.
	Subtitle lipgloss.Style

	// Muted style for hints and metadata.
	Muted lipgloss.Style

	// Error style for errors and high severity.
	Error lipgloss.Style

	// Success style for passed checks.
	Success lipgloss.Style

	// Warning style for warnings and medium severity.
	Warning lipgloss.Style

	// Label style for issue type tags.
	Label lipgloss.Style
}

// NewStyles creates styles from a theme. Without colour every style
// renders text unchanged.
func NewStyles(theme *Theme, colour bool) *Styles {
	if !colour {
		plain := lipgloss.NewStyle()
		return &Styles{
			Title: plain, Subtitle: plain, Muted: plain,
			Error: plain, Success: plain, Warning: plain, Label: plain,
		}
	}
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Label: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),
	}
}

// stylesFor picks coloured styles only when w is a terminal and NO_COLOR is unset.
func stylesFor(w io.Writer) *Styles {
	return NewStyles(DefaultTheme(), colourEnabled(w))
}

func colourEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Severity returns the style for a rule severity.
func (s *Styles) Severity(sev domain.Severity) lipgloss.Style {
	switch sev {
	case domain.SeverityHigh:
		return s.Error
	case domain.SeverityMedium:
		return s.Warning
	default:
		return s.Muted
	}
}

// IssueType returns the style for an issue type tag. Structural problems
// stand out more than cosmetic ones.
func (s *Styles) IssueType(t domain.IssueType) lipgloss.Style {
	switch t {
	case domain.IssueTypeCrossReference, domain.IssueTypeReference, domain.IssueTypeNumbering:
		return s.Error
	case domain.IssueTypeLogicPoint:
		return s.Warning
	default:
		return s.Label
	}
}

// Check renders a pass/fail marker.
func (s *Styles) Check(passed bool) string {
	if passed {
		return s.Success.Render("passed")
	}
	return s.Error.Render("failed")
}

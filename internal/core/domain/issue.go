package domain

import "strings"

// IssueType classifies a finding. The vocabulary is closed: anything a
// detector or model reports outside it is coerced to IssueTypeOther.
type IssueType string

// Recognised issue types.
const (
	IssueTypeTypo           IssueType = "typo"
	IssueTypeSpacing        IssueType = "spacing"
	IssueTypePunctuation    IssueType = "punctuation"
	IssueTypeCapitalization IssueType = "capitalization"
	IssueTypeAlignment      IssueType = "alignment"
	IssueTypeFont           IssueType = "font"
	IssueTypeFormatting     IssueType = "formatting"
	IssueTypeCrossReference IssueType = "cross_reference"
	IssueTypeNumbering      IssueType = "numbering"
	IssueTypeReference      IssueType = "reference"
	IssueTypeLogicPoint     IssueType = "logic_point"
	IssueTypeOther          IssueType = "other"
)

// AllIssueTypes returns the closed vocabulary in declaration order.
func AllIssueTypes() []IssueType {
	return []IssueType{
		IssueTypeTypo,
		IssueTypeSpacing,
		IssueTypePunctuation,
		IssueTypeCapitalization,
		IssueTypeAlignment,
		IssueTypeFont,
		IssueTypeFormatting,
		IssueTypeCrossReference,
		IssueTypeNumbering,
		IssueTypeReference,
		IssueTypeLogicPoint,
		IssueTypeOther,
	}
}

// IsValid returns true if the issue type is part of the vocabulary.
func (t IssueType) IsValid() bool {
	switch t {
	case IssueTypeTypo, IssueTypeSpacing, IssueTypePunctuation, IssueTypeCapitalization,
		IssueTypeAlignment, IssueTypeFont, IssueTypeFormatting, IssueTypeCrossReference,
		IssueTypeNumbering, IssueTypeReference, IssueTypeLogicPoint, IssueTypeOther:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t IssueType) String() string {
	return string(t)
}

// ParseIssueType maps free-form input onto the vocabulary.
// Case, surrounding space, hyphens and inner spaces are normalised first,
// so "Cross-Reference" and "logic point" are accepted. Unknown values
// become IssueTypeOther.
func ParseIssueType(s string) IssueType {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if t := IssueType(norm); t.IsValid() {
		return t
	}
	return IssueTypeOther
}

// Issue is a single finding on one page.
// Issues are immutable once a detector has produced them; only
// ScreenshotURL may be filled in afterwards through AnalysisResult.
type Issue struct {
	// Page is 1-indexed.
	Page int `json:"page"`

	Type         IssueType `json:"type"`
	Message      string    `json:"message"`
	Original     string    `json:"original"`
	Suggestion   string    `json:"suggestion"`
	LocationHint string    `json:"locationHint"`

	// ScreenshotURL is set by the screenshot collaborator, best effort.
	ScreenshotURL string `json:"screenshotUrl,omitempty"`
}

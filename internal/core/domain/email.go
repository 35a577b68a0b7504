package domain

import "time"

// Customer identifies the party the confirmation email is addressed to.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
}

// Fund identifies a fund the subscription document relates to.
type Fund struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// EmailInputs carries everything needed to draft a confirmation email.
// When Typos is empty the composer derives it from typo issues.
type EmailInputs struct {
	Customer   Customer  `json:"customer"`
	Funds      []Fund    `json:"funds"`
	Issues     []Issue   `json:"issues"`
	Typos      []Issue   `json:"typos,omitempty"`
	RespondBy  time.Time `json:"respondBy"`
	SenderName string    `json:"senderName,omitempty"`
}

// Evidence locates an issue in the document.
type Evidence struct {
	SectionTitle string `json:"sectionTitle"`
	PageRef      string `json:"pageRef"`
}

// Question is one issue raised with the customer.
type Question struct {
	Type              string   `json:"type"`
	Title             string   `json:"title"`
	Issue             string   `json:"issue"`
	Evidence          Evidence `json:"evidence"`
	ProposedSolution  string   `json:"proposedSolution"`
	RequestUpdatedPDF bool     `json:"requestUpdatedPDF"`
}

// TypoItem is one typo listed in the email.
type TypoItem struct {
	PageRef    string `json:"pageRef"`
	Original   string `json:"original"`
	Correction string `json:"correction"`
}

// EmailDraft is the structured draft the model returns.
type EmailDraft struct {
	Subject          string     `json:"subject"`
	Opening          string     `json:"opening"`
	AssumptionsBlock string     `json:"assumptionsBlock,omitempty"`
	Questions        []Question `json:"questions"`
	Typos            []TypoItem `json:"typos"`
	Closing          string     `json:"closing"`
	Signature        string     `json:"signature"`
	FollowUps        []string   `json:"followUps"`
}

// FlagType is the severity of a post-processing flag.
type FlagType string

// Flag types.
const (
	FlagWarning FlagType = "warning"
	FlagError   FlagType = "error"
)

// Flag is a finding of the deterministic email checks.
type Flag struct {
	Type    FlagType `json:"type"`
	Message string   `json:"message"`
}

// GeneratedEmail is the rendered email with the outcome of its checks.
type GeneratedEmail struct {
	Subject               string      `json:"subject"`
	BodyHTML              string      `json:"bodyHtml"`
	BodyText              string      `json:"bodyText"`
	ToneCheckPassed       bool        `json:"toneCheckPassed"`
	ReferencesCheckPassed bool        `json:"referencesCheckPassed"`
	Flags                 []Flag      `json:"flags"`
	Draft                 *EmailDraft `json:"draft,omitempty"`
}

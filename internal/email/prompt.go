// Package email drafts confirmation emails from analysis results and
// applies deterministic checks before rendering them.
package email

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// SystemInstruction is the built-in system prompt for drafting.
const SystemInstruction = `You are a legal-operations associate writing to a fund investor about their subscription document.

Rules:
- Keep a courteous, precise, professional tone.
- Use one term per concept throughout. Refer to the investor and the fund exactly as the inputs do; never mix synonyms such as Investor/Subscriber or Fund/Partnership.
- Cite the exact section title and page for every point. Write page references as "p. <number>", for example "p. 3".
- Structure every point as Issue followed by Proposed solution.
- When the fix requires changing the document text, set requestUpdatedPDF to true and ask explicitly for an updated PDF in the proposed solution.
- Do not invent issues that are not in the inputs.`

// draftSchema documents the JSON shape the model must return.
const draftSchema = `{
  "subject": "string",
  "opening": "string",
  "assumptionsBlock": "string (optional)",
  "questions": [
    {
      "type": "issue type from the input, e.g. logic_point",
      "title": "string",
      "issue": "string",
      "evidence": {"sectionTitle": "string", "pageRef": "p. <number>"},
      "proposedSolution": "string",
      "requestUpdatedPDF": true
    }
  ],
  "typos": [{"pageRef": "p. <number>", "original": "string", "correction": "string"}],
  "closing": "string",
  "signature": "string",
  "followUps": ["string"]
}`

// Prompt is a system instruction and the user message carrying the data.
type Prompt struct {
	System string
	User   string
}

type promptData struct {
	Customer  domain.Customer `json:"customer"`
	Funds     []domain.Fund   `json:"funds"`
	RespondBy string          `json:"respondBy,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Issues    []promptIssue   `json:"issues"`
	Typos     []promptIssue   `json:"typos"`
}

type promptIssue struct {
	Page         int    `json:"page"`
	Type         string `json:"type"`
	Message      string `json:"message"`
	Original     string `json:"original,omitempty"`
	Suggestion   string `json:"suggestion,omitempty"`
	LocationHint string `json:"locationHint,omitempty"`
}

// SplitTypos separates typo issues from the rest. An explicit typo list
// on the inputs wins; otherwise typo issues are moved to the typo list.
func SplitTypos(inputs *domain.EmailInputs) (issues, typos []domain.Issue) {
	if len(inputs.Typos) > 0 {
		return inputs.Issues, inputs.Typos
	}
	for _, issue := range inputs.Issues {
		if issue.Type == domain.IssueTypeTypo {
			typos = append(typos, issue)
		} else {
			issues = append(issues, issue)
		}
	}
	return issues, typos
}

// BuildPrompt serialises the inputs into a drafting request. An empty
// system instruction uses SystemInstruction.
func BuildPrompt(inputs *domain.EmailInputs, system string) (Prompt, error) {
	if inputs == nil {
		return Prompt{}, fmt.Errorf("%w: email inputs are nil", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(inputs.Customer.Name) == "" {
		return Prompt{}, fmt.Errorf("%w: customer name is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(system) == "" {
		system = SystemInstruction
	}

	issues, typos := SplitTypos(inputs)
	data := promptData{
		Customer: inputs.Customer,
		Funds:    inputs.Funds,
		Sender:   inputs.SenderName,
		Issues:   toPromptIssues(issues),
		Typos:    toPromptIssues(typos),
	}
	if !inputs.RespondBy.IsZero() {
		data.RespondBy = inputs.RespondBy.Format("2 January 2006")
	}
	if data.Funds == nil {
		data.Funds = []domain.Fund{}
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to encode email inputs: %w", err)
	}

	var user strings.Builder
	user.WriteString("Draft the confirmation email for these inputs:\n\n")
	user.Write(payload)
	user.WriteString("\n\nRespond with JSON only, matching this schema:\n\n")
	user.WriteString(draftSchema)
	if data.RespondBy != "" {
		fmt.Fprintf(&user, "\n\nAsk for a response by %s.", data.RespondBy)
	}

	return Prompt{System: system, User: user.String()}, nil
}

func toPromptIssues(issues []domain.Issue) []promptIssue {
	out := make([]promptIssue, len(issues))
	for i, issue := range issues {
		out[i] = promptIssue{
			Page:         issue.Page,
			Type:         string(issue.Type),
			Message:      issue.Message,
			Original:     issue.Original,
			Suggestion:   issue.Suggestion,
			LocationHint: issue.LocationHint,
		}
	}
	return out
}

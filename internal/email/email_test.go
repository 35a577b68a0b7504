package email

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

func validDraft() *domain.EmailDraft {
	return &domain.EmailDraft{
		Subject: "Subscription documents: points to confirm",
		Opening: "Dear Jane,\n\nThank you for returning the subscription documents for Acme Growth Fund LP.",
		Questions: []domain.Question{
			{
				Type:              "logic_point",
				Title:             "Subscription amount",
				Issue:             "The amount on p. 4 differs from the amount on the signature page.",
				Evidence:          domain.Evidence{SectionTitle: "Section 2: Commitment", PageRef: "p. 4"},
				ProposedSolution:  "Please confirm the correct amount and send an updated PDF.",
				RequestUpdatedPDF: true,
			},
		},
		Typos:     []domain.TypoItem{{PageRef: "p. 2", Original: "teh", Correction: "the"}},
		Closing:   "We look forward to hearing from you.",
		Signature: "Kind regards,\nOperations Team",
	}
}

func inputs() *domain.EmailInputs {
	return &domain.EmailInputs{
		Customer: domain.Customer{Name: "Jane Doe", Email: "jane@example.com"},
		Funds:    []domain.Fund{{Name: "Acme Growth Fund LP", Code: "AGF"}},
		Issues: []domain.Issue{
			{Page: 4, Type: domain.IssueTypeLogicPoint, Message: "Subscription amount mismatch"},
			{Page: 2, Type: domain.IssueTypeTypo, Original: "teh", Suggestion: "the"},
		},
		RespondBy: time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheck_CleanDraft(t *testing.T) {
	flags, err := Check(validDraft(), inputs())

	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestCheck_MissingTypeFailsFast(t *testing.T) {
	draft := validDraft()
	draft.Questions = append(draft.Questions, domain.Question{Title: "No type", Evidence: domain.Evidence{PageRef: "bad"}})

	flags, err := Check(draft, nil)

	assert.Nil(t, flags)
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "type", vErr.Field)
	assert.Equal(t, 1, vErr.Index)
}

func TestCheck_NilDraft(t *testing.T) {
	_, err := Check(nil, nil)

	var vErr *domain.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestCheck_PageRefFormat(t *testing.T) {
	draft := validDraft()
	draft.Questions[0].Evidence.PageRef = "page 3"

	flags, err := Check(draft, inputs())
	require.NoError(t, err)

	require.Len(t, flags, 1)
	assert.Equal(t, domain.FlagWarning, flags[0].Type)
	assert.Contains(t, flags[0].Message, "pageRef")

	tone, refs := Evaluate(flags)
	assert.True(t, tone)
	assert.False(t, refs)
}

func TestCheck_MissingEvidence(t *testing.T) {
	draft := validDraft()
	draft.Questions[0].Evidence = domain.Evidence{}

	flags, err := Check(draft, inputs())
	require.NoError(t, err)

	require.Len(t, flags, 2)
	for _, f := range flags {
		assert.Equal(t, domain.FlagError, f.Type)
	}
	assert.Contains(t, flags[0].Message, "pageRef")
	assert.Contains(t, flags[1].Message, "sectionTitle")

	tone, refs := Evaluate(flags)
	assert.False(t, tone)
	assert.False(t, refs)
}

func TestCheck_TypoPageRef(t *testing.T) {
	draft := validDraft()
	draft.Typos[0].PageRef = "pg 2"

	flags, err := Check(draft, inputs())
	require.NoError(t, err)

	require.Len(t, flags, 1)
	assert.Contains(t, flags[0].Message, "typos[0]")
	_, refs := Evaluate(flags)
	assert.False(t, refs)
}

func TestCheck_UpdatedPDFPhrasing(t *testing.T) {
	tests := []struct {
		name     string
		solution string
		request  bool
		flagged  bool
	}{
		{"updated", "Please send an updated PDF.", true, false},
		{"revised", "Please provide a Revised version.", true, false},
		{"missing wording", "Please correct the amount.", true, true},
		{"not requested", "Please confirm the amount.", false, false},
		{"similar word only", "We have not outdated anything.", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			draft.Questions[0].ProposedSolution = tt.solution
			draft.Questions[0].RequestUpdatedPDF = tt.request

			flags, err := Check(draft, inputs())
			require.NoError(t, err)

			if tt.flagged {
				require.Len(t, flags, 1)
				assert.Equal(t, domain.FlagWarning, flags[0].Type)
				tone, refs := Evaluate(flags)
				assert.True(t, tone)
				assert.True(t, refs)
			} else {
				assert.Empty(t, flags)
			}
		})
	}
}

func TestCheck_Terminology(t *testing.T) {
	tests := []struct {
		name    string
		closing string
		want    []string
	}{
		{"investor and subscriber", "The Investor and the Subscriber must sign.", []string{`"Investor", "Subscriber"`}},
		{"plural forms", "All investors and purchasers must sign.", []string{`"Investor", "Purchaser"`}},
		{"fund and partnership", "The Fund and the Partnership agree.", []string{`"Fund", "Partnership"`}},
		{"limited partner and LP", "Each Limited Partner is an LP.", []string{`"Limited Partner", "LP"`}},
		{"both groups", "The Investor, the Subscriber, the Fund and the Vehicle.", []string{"investor", "fund"}},
		{"single term repeated", "The Investor confirms. The investor signs.", nil},
		{"limited partnership is a fund term", "The Limited Partnership and the Investor.", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			draft.Closing = tt.closing

			flags, err := Check(draft, inputs())
			require.NoError(t, err)

			require.Len(t, flags, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, domain.FlagWarning, flags[i].Type)
				assert.Contains(t, flags[i].Message, want)
			}
			_, refs := Evaluate(flags)
			assert.True(t, refs)
		})
	}
}

func TestCheck_TerminologyIgnoresProperNames(t *testing.T) {
	draft := validDraft()
	draft.Closing = "Acme Growth Fund LP thanks the Investor."

	flags, err := Check(draft, inputs())
	require.NoError(t, err)
	assert.Empty(t, flags)

	// Without the inputs the fund name's "LP" counts as an investor term.
	flags, err = Check(draft, nil)
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Contains(t, flags[0].Message, `"Investor", "LP"`)
}

func TestEvaluate_NoFlags(t *testing.T) {
	tone, refs := Evaluate(nil)
	assert.True(t, tone)
	assert.True(t, refs)
}

func TestParseDraft(t *testing.T) {
	data, err := json.Marshal(validDraft())
	require.NoError(t, err)

	draft, err := ParseDraft("```json\n" + string(data) + "\n```")
	require.NoError(t, err)
	assert.Equal(t, validDraft(), draft)
}

func TestParseDraft_Rejects(t *testing.T) {
	for _, reply := range []string{"", "Here is your email", `["subject"]`, `{"subject": 1}`, `{"subject":"a"} extra`} {
		_, err := ParseDraft(reply)

		var respErr *domain.ModelResponseError
		require.True(t, errors.As(err, &respErr), "reply %q", reply)
		assert.Equal(t, reply, respErr.Raw)
	}
}

func TestRender(t *testing.T) {
	html, text, err := Render(validDraft())
	require.NoError(t, err)

	assert.Contains(t, text, "Dear Jane,")
	assert.Contains(t, text, "1. Subscription amount\n   Issue: The amount on p. 4")
	assert.Contains(t, text, "   Evidence: Section 2: Commitment, p. 4\n")
	assert.Contains(t, text, "   Proposed solution: Please confirm the correct amount and send an updated PDF.")
	assert.Contains(t, text, ` - p. 2: "teh" should read "the"`)
	assert.True(t, strings.HasSuffix(text, "Kind regards,\nOperations Team\n"))

	assert.Contains(t, html, "<ol>")
	assert.Contains(t, html, "<strong>Subscription amount</strong>")
	assert.Contains(t, html, "Section 2: Commitment, p. 4")
	assert.Contains(t, html, "<li>p. 2: &ldquo;teh&rdquo; should read &ldquo;the&rdquo;</li>")
	assert.Contains(t, html, "Kind regards,<br>\nOperations Team")
}

func TestRender_Deterministic(t *testing.T) {
	html1, text1, err := Render(validDraft())
	require.NoError(t, err)
	html2, text2, err := Render(validDraft())
	require.NoError(t, err)

	assert.Equal(t, html1, html2)
	assert.Equal(t, text1, text2)
}

func TestRender_EscapesHTML(t *testing.T) {
	draft := validDraft()
	draft.Questions[0].Issue = `<script>alert("x")</script>`
	draft.Signature = "<b>Ops</b>"

	html, text, err := Render(draft)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "&lt;b&gt;Ops&lt;/b&gt;")
	assert.Contains(t, text, `<script>alert("x")</script>`)
}

func TestRender_OptionalSections(t *testing.T) {
	draft := &domain.EmailDraft{Opening: "Hello", AssumptionsBlock: "We assume the amounts are in USD.", Closing: "Thanks", Signature: "Ops"}

	html, text, err := Render(draft)
	require.NoError(t, err)

	assert.NotContains(t, html, "<ol>")
	assert.NotContains(t, html, "typographical")
	assert.Equal(t, "Hello\n\nWe assume the amounts are in USD.\n\nThanks\n\nOps\n", text)
}

func TestFinalise(t *testing.T) {
	draft := validDraft()
	draft.Questions[0].Evidence.PageRef = "page 4"

	email, err := Finalise(draft, inputs())
	require.NoError(t, err)

	assert.Equal(t, draft.Subject, email.Subject)
	assert.True(t, email.ToneCheckPassed)
	assert.False(t, email.ReferencesCheckPassed)
	require.Len(t, email.Flags, 1)
	assert.NotEmpty(t, email.BodyHTML)
	assert.NotEmpty(t, email.BodyText)
	assert.Same(t, draft, email.Draft)
}

func TestFinalise_ValidationError(t *testing.T) {
	draft := validDraft()
	draft.Questions[0].Type = " "

	email, err := Finalise(draft, nil)

	assert.Nil(t, email)
	var vErr *domain.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestSplitTypos(t *testing.T) {
	in := inputs()

	issues, typos := SplitTypos(in)
	require.Len(t, issues, 1)
	require.Len(t, typos, 1)
	assert.Equal(t, domain.IssueTypeTypo, typos[0].Type)

	in.Typos = []domain.Issue{{Page: 9, Original: "recieve"}}
	issues, typos = SplitTypos(in)
	assert.Len(t, issues, 2)
	assert.Equal(t, in.Typos, typos)
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt(inputs(), "")
	require.NoError(t, err)

	assert.Equal(t, SystemInstruction, p.System)
	assert.Contains(t, p.User, `"name": "Jane Doe"`)
	assert.Contains(t, p.User, `"respondBy": "14 March 2025"`)
	assert.Contains(t, p.User, `"requestUpdatedPDF"`)
	assert.Contains(t, p.User, "Ask for a response by 14 March 2025.")

	var data promptData
	start := strings.Index(p.User, "{")
	end := strings.Index(p.User, "\n\nRespond with JSON only")
	require.NoError(t, json.Unmarshal([]byte(p.User[start:end]), &data))
	assert.Len(t, data.Issues, 1)
	assert.Len(t, data.Typos, 1)
	assert.Equal(t, "teh", data.Typos[0].Original)
}

func TestBuildPrompt_CustomSystem(t *testing.T) {
	p, err := BuildPrompt(inputs(), "Be brief.")
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", p.System)
}

func TestBuildPrompt_InvalidInputs(t *testing.T) {
	_, err := BuildPrompt(nil, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	in := inputs()
	in.Customer.Name = " "
	_, err = BuildPrompt(in, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

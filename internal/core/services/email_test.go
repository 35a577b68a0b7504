package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

const draftReply = `{
  "subject": "Subscription documents for Harbour Capital: updated PDF requested",
  "opening": "Dear Alex,\n\nThank you for sending the subscription documents.",
  "questions": [
    {
      "type": "cross_reference",
      "title": "Missing section",
      "issue": "Section 4.2 is referenced but does not exist.",
      "evidence": {"sectionTitle": "Representations", "pageRef": "p. 2"},
      "proposedSolution": "Please confirm the intended section.",
      "requestUpdatedPDF": true
    }
  ],
  "typos": [],
  "closing": "Please send an updated PDF by 9 March 2026.",
  "signature": "Kind regards,\nOperations Team",
  "followUps": []
}`

type fakePrompts struct {
	text string
	err  error
}

func (p fakePrompts) Load(string) (string, error) { return p.text, p.err }
func (p fakePrompts) Reload()                     {}

func emailInputs() *domain.EmailInputs {
	return &domain.EmailInputs{
		Customer:  domain.Customer{Name: "Alex Morgan", Company: "Harbour Capital"},
		Funds:     []domain.Fund{{Name: "Northwind Growth Fund II"}},
		RespondBy: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Issues: []domain.Issue{
			{Page: 2, Type: domain.IssueTypeCrossReference, Message: "Section 4.2 is missing"},
		},
	}
}

func TestEmailService_Compose(t *testing.T) {
	llm := &fakeLLM{reply: draftReply}
	svc := NewEmailService(&fakeResolver{llm: llm}, nil)

	email, err := svc.Compose(context.Background(), emailInputs())
	require.NoError(t, err)

	assert.Equal(t, "Subscription documents for Harbour Capital: updated PDF requested", email.Subject)
	assert.True(t, email.ToneCheckPassed)
	assert.True(t, email.ReferencesCheckPassed)
	assert.NotNil(t, email.Flags)
	assert.Contains(t, email.BodyText, "Section 4.2 is referenced")
	assert.Contains(t, email.BodyHTML, "Missing section")

	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.Equal(t, "user", llm.messages[1].Role)
	assert.Contains(t, llm.messages[1].Content, "Alex Morgan")
	assert.Contains(t, llm.messages[1].Content, "9 March 2026")
	assert.True(t, llm.opts.JSON)
}

func TestEmailService_PromptOverride(t *testing.T) {
	llm := &fakeLLM{reply: draftReply}
	svc := NewEmailService(&fakeResolver{llm: llm}, domain.CompanyLLM{},
		WithEmailPrompts(fakePrompts{text: "Write tersely."}))

	_, err := svc.Compose(context.Background(), emailInputs())
	require.NoError(t, err)
	assert.Equal(t, "Write tersely.", llm.messages[0].Content)
}

func TestEmailService_PromptLoadFailureUsesBuiltIn(t *testing.T) {
	llm := &fakeLLM{reply: draftReply}
	svc := NewEmailService(&fakeResolver{llm: llm}, nil)
	svc.SetPromptStore(fakePrompts{err: errors.New("missing")})

	_, err := svc.Compose(context.Background(), emailInputs())
	require.NoError(t, err)
	assert.NotEmpty(t, llm.messages[0].Content)
	assert.NotEqual(t, "Write tersely.", llm.messages[0].Content)
}

func TestEmailService_InvalidInputs(t *testing.T) {
	resolver := &fakeResolver{llm: &fakeLLM{reply: draftReply}}
	svc := NewEmailService(resolver, nil)

	_, err := svc.Compose(context.Background(), &domain.EmailInputs{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, resolver.resolved)
}

func TestEmailService_NoModel(t *testing.T) {
	svc := NewEmailService(nil, nil)
	_, err := svc.Compose(context.Background(), emailInputs())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	svc = NewEmailService(&fakeResolver{err: domain.ErrLLMUnavailable}, nil)
	_, err = svc.Compose(context.Background(), emailInputs())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestEmailService_MalformedDraft(t *testing.T) {
	svc := NewEmailService(&fakeResolver{llm: &fakeLLM{reply: "Sure! Here is your email."}}, nil)

	_, err := svc.Compose(context.Background(), emailInputs())
	var respErr *domain.ModelResponseError
	assert.ErrorAs(t, err, &respErr)
}

func TestEmailService_DraftMissingStructure(t *testing.T) {
	reply := `{"subject":"s","opening":"o","questions":[{"title":"t","issue":"i","evidence":{"pageRef":"p. 1","sectionTitle":"A"}}],"typos":[],"closing":"c","signature":"s","followUps":[]}`
	svc := NewEmailService(&fakeResolver{llm: &fakeLLM{reply: reply}}, nil)

	_, err := svc.Compose(context.Background(), emailInputs())
	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "type", valErr.Field)
}

type slowLLM struct{ fakeLLM }

func (s *slowLLM) Chat(ctx context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestEmailService_Timeout(t *testing.T) {
	svc := NewEmailService(&fakeResolver{llm: &slowLLM{}}, nil, WithEmailTimeout(10*time.Millisecond))

	_, err := svc.Compose(context.Background(), emailInputs())
	var timeoutErr *domain.ModelTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 10*time.Millisecond, timeoutErr.Timeout)
}

func TestEmailService_CallerCancelled(t *testing.T) {
	svc := NewEmailService(&fakeResolver{llm: &slowLLM{}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Compose(ctx, emailInputs())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmailService_ProviderError(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := NewEmailService(&fakeResolver{llm: &fakeLLM{err: boom}}, nil)

	_, err := svc.Compose(context.Background(), emailInputs())
	assert.ErrorIs(t, err, boom)
}

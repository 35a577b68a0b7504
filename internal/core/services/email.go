package services

import (
	"context"
	"time"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
	"github.com/custodia-labs/docaudit/internal/email"
	"github.com/custodia-labs/docaudit/internal/logger"
)

// Ensure EmailService implements the interface.
var _ driving.EmailService = (*EmailService)(nil)

// Draft request limits.
const (
	emailTimeout   = 90 * time.Second
	emailMaxTokens = 4096
)

// EmailService drafts a confirmation email with a model and checks the
// draft before rendering it.
type EmailService struct {
	llms    driven.LLMResolver
	method  domain.ProcessingMethod
	prompts driven.PromptStore
	timeout time.Duration
}

// EmailOption configures an EmailService.
type EmailOption func(*EmailService)

// WithEmailPrompts overrides the built-in system instruction.
func WithEmailPrompts(store driven.PromptStore) EmailOption {
	return func(s *EmailService) { s.prompts = store }
}

// WithEmailTimeout bounds the drafting call.
func WithEmailTimeout(d time.Duration) EmailOption {
	return func(s *EmailService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewEmailService creates an email service that drafts with the model
// resolved for method. A nil method uses the external provider.
func NewEmailService(llms driven.LLMResolver, method domain.ProcessingMethod, opts ...EmailOption) *EmailService {
	if method == nil {
		method = domain.ExternalAI{}
	}
	s := &EmailService{
		llms:    llms,
		method:  method,
		timeout: emailTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPromptStore implements driven.PromptStoreAware.
func (s *EmailService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Compose drafts, checks and renders an email.
func (s *EmailService) Compose(ctx context.Context, inputs *domain.EmailInputs) (*domain.GeneratedEmail, error) {
	prompt, err := email.BuildPrompt(inputs, s.systemInstruction())
	if err != nil {
		return nil, err
	}

	if s.llms == nil {
		return nil, domain.ErrLLMUnavailable
	}
	llm, err := s.llms.ResolveLLM(s.method)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := logger.Timed("email draft (" + llm.ModelName() + ")")
	reply, err := llm.Chat(callCtx, []driven.ChatMessage{
		{Role: "system", Content: prompt.System},
		{Role: "user", Content: prompt.User},
	}, driven.ChatOptions{
		MaxTokens:   emailMaxTokens,
		Temperature: 0.2,
		JSON:        true,
	})
	done()
	if err != nil {
		if ctx.Err() == nil && callCtx.Err() != nil {
			return nil, &domain.ModelTimeoutError{Timeout: s.timeout}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	draft, err := email.ParseDraft(reply)
	if err != nil {
		return nil, err
	}

	generated, err := email.Finalise(draft, inputs)
	if err != nil {
		return nil, err
	}
	logger.Debug("email checks: tone=%t references=%t flags=%d",
		generated.ToneCheckPassed, generated.ReferencesCheckPassed, len(generated.Flags))
	return generated, nil
}

func (s *EmailService) systemInstruction() string {
	if s.prompts == nil {
		return ""
	}
	text, err := s.prompts.Load(driven.PromptEmailSystem)
	if err != nil {
		logger.Debug("email prompt not loaded, using built-in: %v", err)
		return ""
	}
	return text
}

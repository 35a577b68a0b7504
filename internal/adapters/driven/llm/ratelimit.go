// Package llm holds helpers shared by the LLM provider adapters.
package llm

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// defaultBurst allows a short burst before pacing starts.
const defaultBurst = 1

// RateLimited wraps svc so every model call waits for a token first.
// A non-positive rate returns svc unchanged. File support is preserved:
// the result implements driven.DocumentLLM when svc does.
func RateLimited(svc driven.LLMService, requestsPerSecond float64) driven.LLMService {
	if svc == nil || requestsPerSecond <= 0 || math.IsInf(requestsPerSecond, 1) {
		return svc
	}

	paced := &pacedLLM{
		LLMService: svc,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), defaultBurst),
	}
	if doc, ok := svc.(driven.DocumentLLM); ok {
		return &pacedDocumentLLM{pacedLLM: paced, doc: doc}
	}
	return paced
}

type pacedLLM struct {
	driven.LLMService
	limiter *rate.Limiter
}

func (p *pacedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.LLMService.Generate(ctx, prompt, opts)
}

func (p *pacedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.LLMService.Chat(ctx, messages, opts)
}

type pacedDocumentLLM struct {
	*pacedLLM
	doc driven.DocumentLLM
}

func (p *pacedDocumentLLM) GenerateWithFile(
	ctx context.Context,
	prompt string,
	file driven.Attachment,
	opts driven.GenerateOptions,
) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.doc.GenerateWithFile(ctx, prompt, file, opts)
}

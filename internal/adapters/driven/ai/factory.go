// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docaudit/internal/adapters/driven/llm"
	anthropicllm "github.com/custodia-labs/docaudit/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/docaudit/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docaudit/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docaudit/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docaudit settings set llm.provider <name>' to fix",
			domain.ErrLLMUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check llm.base_url and llm.api_key",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
// This is intended for use by 'settings check' to validate credentials on configuration.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured. A positive
// RequestsPerSecond paces every call.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err = createGeminiLLM(settings)

	case domain.AIProviderOllama:
		svc = createOllamaLLM(settings)

	case domain.AIProviderOpenAI:
		svc, err = createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		svc, err = createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return llm.RateLimited(svc, settings.RequestsPerSecond), nil
}

// createGeminiLLM creates a Gemini LLM service.
func createGeminiLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return geminillm.NewLLMService(context.Background(), geminillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		APIKey:  settings.APIKey,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// Ensure Resolver implements the interface.
var _ driven.LLMResolver = (*Resolver)(nil)

// Resolver maps processing methods to model clients. Clients are created
// on first use and reused; Close releases all of them.
type Resolver struct {
	external domain.LLMSettings
	company  domain.LLMSettings
	create   func(*domain.LLMSettings) (driven.LLMService, error)

	mu      sync.Mutex
	clients map[string]driven.LLMService
}

// NewResolver creates a resolver for the external and company model settings.
func NewResolver(settings *domain.AppSettings) *Resolver {
	return &Resolver{
		external: settings.LLM,
		company:  settings.CompanyLLM,
		create:   CreateLLMService,
		clients:  make(map[string]driven.LLMService),
	}
}

// ResolveLLM returns the client for method. The method's provider and
// model, when set, override the configured ones.
func (r *Resolver) ResolveLLM(method domain.ProcessingMethod) (driven.LLMService, error) {
	var settings domain.LLMSettings
	switch m := method.(type) {
	case domain.ExternalAI:
		settings = r.external
		if m.Provider != "" && m.Provider != settings.Provider {
			settings.Provider = m.Provider
			settings.Model = ""
			settings.BaseURL = ""
			settings.APIKey = ""
		}
		if m.Model != "" {
			settings.Model = m.Model
		}
	case domain.CompanyLLM:
		settings = r.company
		if m.Model != "" {
			settings.Model = m.Model
		}
	default:
		return nil, fmt.Errorf("%w: method %s does not use a model", domain.ErrLLMUnavailable, methodName(method))
	}

	if settings.Model == "" {
		settings.Model = domain.DefaultLLMModels()[settings.Provider]
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s provider %q is not configured", domain.ErrLLMUnavailable,
			method.Name(), settings.Provider)
	}

	key := method.Name() + "|" + string(settings.Provider) + "|" + settings.Model
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc, ok := r.clients[key]; ok {
		return svc, nil
	}

	svc, err := r.create(&settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, method.Name())
	}
	r.clients[key] = svc
	return svc, nil
}

// Close releases every client created so far.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for key, svc := range r.clients {
		if err := svc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.clients, key)
	}
	return firstErr
}

func methodName(method domain.ProcessingMethod) string {
	if method == nil {
		return "<nil>"
	}
	return method.Name()
}

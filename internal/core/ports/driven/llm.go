// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// LLMService provides language model operations for document analysis
// and email drafting.
// This is an optional service - when nil, only local pattern detection is available.
//
// Implementations may include:
//   - Google Gemini
//   - OpenAI (and OpenAI-compatible company endpoints)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// DocumentLLM is implemented by providers that accept a file payload
// alongside the prompt. The model detector prefers it when available
// and falls back to sending extracted text otherwise.
type DocumentLLM interface {
	LLMService

	// GenerateWithFile produces text from a prompt and an attached file.
	GenerateWithFile(ctx context.Context, prompt string, file Attachment, opts GenerateOptions) (string, error)
}

// Attachment is a binary file sent to the model.
type Attachment struct {
	// Name is the original file name.
	Name string

	// MIMEType is the content type, e.g. "application/pdf".
	MIMEType string

	// Data is the raw file content. Adapters encode it as the provider requires.
	Data []byte
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string

	// JSON asks the provider for a JSON-only response where supported.
	JSON bool
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// JSON asks the provider for a JSON-only response where supported.
	JSON bool
}

// LLMResolver returns the model client for a processing method.
// Implementations own the clients they create and release them on Close.
type LLMResolver interface {
	// ResolveLLM returns the client for method. Methods that do not use a
	// model, or a provider that is not configured, yield
	// domain.ErrLLMUnavailable.
	ResolveLLM(method domain.ProcessingMethod) (LLMService, error)

	// Close releases every client created so far.
	Close() error
}

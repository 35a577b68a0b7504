// Package gemini provides an LLM service adapter using the Google Gen AI SDK.
// Gemini accepts the PDF itself, so the model detector sends the upload
// rather than extracted text.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// Ensure LLMService implements the interfaces.
var (
	_ driven.LLMService  = (*LLMService)(nil)
	_ driven.DocumentLLM = (*LLMService)(nil)
)

// Default configuration values.
const (
	DefaultModel = "gemini-2.5-flash"
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model to use (default: gemini-2.5-flash).
	Model string

	// BaseURL overrides the API endpoint, e.g. for a regional proxy.
	BaseURL string
}

// LLMService provides LLM operations using Gemini.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &LLMService{client: client, model: cfg.Model}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	return s.generate(ctx, contents, generateConfig(opts.MaxTokens, opts.Temperature, opts.JSON, opts.StopWords))
}

// GenerateWithFile sends the file inline ahead of the prompt.
func (s *LLMService) GenerateWithFile(
	ctx context.Context,
	prompt string,
	file driven.Attachment,
	opts driven.GenerateOptions,
) (string, error) {
	mimeType := file.MIMEType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(file.Data, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	return s.generate(ctx, contents, generateConfig(opts.MaxTokens, opts.Temperature, opts.JSON, opts.StopWords))
}

// Chat conducts a multi-turn conversation. System messages become the
// system instruction.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	system, contents := toContents(messages)
	cfg := generateConfig(opts.MaxTokens, opts.Temperature, opts.JSON, nil)
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return s.generate(ctx, contents, cfg)
}

func (s *LLMService) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	if len(contents) == 0 {
		return "", errors.New("gemini: no messages to send")
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: no response candidates returned")
	}
	return resp.Text(), nil
}

func generateConfig(maxTokens int, temperature float64, json bool, stop []string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(min(maxTokens, 1<<30))
	}
	if json {
		cfg.ResponseMIMEType = "application/json"
	}
	if len(stop) > 0 {
		cfg.StopSequences = stop
	}
	return cfg
}

// toContents converts chat messages to Gemini contents. Gemini names the
// assistant role "model" and takes system text separately.
func toContents(messages []driven.ChatMessage) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant", "model":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model's metadata.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

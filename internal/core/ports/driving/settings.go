package driving

import "github.com/custodia-labs/docaudit/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single dot-notation key, validating the value.
	Set(key, value string) error

	// Keys returns the keys accepted by Set, sorted.
	Keys() []string

	// SetMethod updates the default processing method.
	SetMethod(method string) error

	// SetLLMProvider configures the external AI provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks if current settings are valid for the configured method.
	Validate() error

	// RequiresLLM returns true if the configured method needs a model.
	RequiresLLM() bool

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}

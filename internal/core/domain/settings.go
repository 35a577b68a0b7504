package domain

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API. It accepts the PDF itself.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is a local or company-hosted Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI or any OpenAI-compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud, accepts PDF)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for Gemini/OpenAI/Anthropic).
	APIKey string

	// RequestsPerSecond paces outbound calls. Zero disables pacing.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
// An OpenAI-compatible endpoint with a custom base URL may run without a key.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return l.Provider == AIProviderOpenAI && l.BaseURL != ""
	}
	return true
}

// ExtractorBackend names a PDF text extractor.
type ExtractorBackend string

// Available extractor backends.
const (
	ExtractorNative    ExtractorBackend = "native"
	ExtractorTabula    ExtractorBackend = "tabula"
	ExtractorPdftotext ExtractorBackend = "pdftotext"
)

// IsValid returns true if the backend is recognised.
func (b ExtractorBackend) IsValid() bool {
	switch b {
	case ExtractorNative, ExtractorTabula, ExtractorPdftotext:
		return true
	default:
		return false
	}
}

// AnalysisSettings controls the analysis pipeline.
type AnalysisSettings struct {
	// Method is the default processing method name.
	Method string

	// ModelTimeoutSeconds bounds a single model call.
	ModelTimeoutSeconds int

	// PageChars is the fallback page size when no page breaks exist.
	PageChars int

	// MaxUploadBytes bounds the accepted PDF size.
	MaxUploadBytes int64

	// Screenshots enables page screenshots for issues.
	Screenshots bool

	// Deduplicate collapses identical (page, type, original) issues.
	Deduplicate bool

	// IncludeRules also runs the rule detectors when the configured
	// method is external_ai.
	IncludeRules bool

	// Extractor is the PDF text extractor backend.
	Extractor ExtractorBackend

	// CrossReferenceType is the issue type emitted for missing labels,
	// either cross_reference or reference.
	CrossReferenceType IssueType
}

// StorageBackend names an analysis store.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
	StorageMemory   StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	Backend     StorageBackend
	PostgresDSN string

	// CacheSize is the number of records kept in the read cache.
	CacheSize int
}

// ScreenshotBackend names where rendered page images are written.
type ScreenshotBackend string

// Available screenshot backends.
const (
	ScreenshotS3         ScreenshotBackend = "s3"
	ScreenshotFilesystem ScreenshotBackend = "filesystem"
)

// S3Settings configures an S3-compatible object store.
type S3Settings struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// IsConfigured returns true if the endpoint, bucket and credentials are set.
func (s S3Settings) IsConfigured() bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// ScreenshotSettings holds screenshot configuration.
type ScreenshotSettings struct {
	Backend ScreenshotBackend

	// Dir is the output directory for the filesystem backend.
	Dir string

	S3 S3Settings
}

// RuleSettings holds pattern rule configuration.
type RuleSettings struct {
	// Disabled lists rule IDs that are switched off.
	Disabled []string

	// MinSeverity drops matches of lower severity.
	MinSeverity Severity
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Analysis holds pipeline settings.
	Analysis AnalysisSettings

	// LLM holds the external AI provider settings.
	LLM LLMSettings

	// CompanyLLM holds the organisation's own model endpoint.
	CompanyLLM LLMSettings

	// Storage holds persistence settings.
	Storage StorageSettings

	// Screenshot holds screenshot settings.
	Screenshot ScreenshotSettings

	// Rules holds pattern rule settings.
	Rules RuleSettings
}

// Defaults.
const (
	DefaultModelTimeoutSeconds = 120
	DefaultPageChars           = 3000
	DefaultMaxUploadBytes      = 10 << 20
	DefaultCacheSize           = 1024
)

// DefaultAppSettings returns settings with sensible defaults.
// LLM providers are left unconfigured; local patterns work out of the box.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Analysis: AnalysisSettings{
			Method:              MethodLocalPatterns,
			ModelTimeoutSeconds: DefaultModelTimeoutSeconds,
			PageChars:           DefaultPageChars,
			MaxUploadBytes:      DefaultMaxUploadBytes,
			Extractor:           ExtractorNative,
			CrossReferenceType:  IssueTypeCrossReference,
		},
		LLM: LLMSettings{},
		CompanyLLM: LLMSettings{
			Provider: AIProviderOllama,
		},
		Storage: StorageSettings{
			Backend:   StorageSQLite,
			CacheSize: DefaultCacheSize,
		},
		Screenshot: ScreenshotSettings{
			Backend: ScreenshotFilesystem,
		},
		Rules: RuleSettings{
			MinSeverity: SeverityLow,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-2.5-flash",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// DetectorConfig holds the detector pipeline configuration.
// Uses generic map-based config so new detectors can be added
// without modifying this struct.
type DetectorConfig struct {
	// Detectors is the ordered list of detector names to run.
	Detectors []string

	// DetectorConfigs holds per-detector configuration as generic maps.
	DetectorConfigs map[string]map[string]any
}

// GetDetectorConfig returns config for a specific detector, or nil if not set.
func (c *DetectorConfig) GetDetectorConfig(name string) map[string]any {
	if c.DetectorConfigs == nil {
		return nil
	}
	return c.DetectorConfigs[name]
}

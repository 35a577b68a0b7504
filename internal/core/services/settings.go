package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyMethod            = "analysis.method"
	keyModelTimeout      = "analysis.model_timeout_seconds"
	keyPageChars         = "analysis.page_chars"
	keyMaxUploadBytes    = "analysis.max_upload_bytes"
	keyScreenshots       = "analysis.screenshots"
	keyDeduplicate       = "analysis.deduplicate"
	keyIncludeRules      = "analysis.include_rules"
	keyCrossRefType      = "analysis.cross_reference_type"
	keyExtractor         = "extractor.backend"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMRate           = "llm.requests_per_second"
	keyCompanyProvider   = "company_llm.provider"
	keyCompanyModel      = "company_llm.model"
	keyCompanyBaseURL    = "company_llm.base_url"
	keyCompanyAPIKey     = "company_llm.api_key"
	keyStorageBackend    = "storage.backend"
	keyPostgresDSN       = "storage.postgres_dsn"
	keyCacheSize         = "storage.cache_size"
	keyScreenshotBackend = "screenshots.backend"
	keyScreenshotDir     = "screenshots.dir"
	keyS3Endpoint        = "s3.endpoint"
	keyS3Region          = "s3.region"
	keyS3AccessKey       = "s3.access_key"
	keyS3SecretKey       = "s3.secret_key"
	keyS3Bucket          = "s3.bucket"
	keyS3UseSSL          = "s3.use_ssl"
	keyRulesDisabled     = "rules.disabled"
	keyRulesMinSeverity  = "rules.min_severity"
	keyDetectors         = "detectors.enabled"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindInt64
	kindFloat
	kindBool
	kindList
)

// settableKeys lists the keys Set accepts and how their values parse.
var settableKeys = map[string]valueKind{
	keyMethod: kindString, keyModelTimeout: kindInt, keyPageChars: kindInt,
	keyMaxUploadBytes: kindInt64, keyScreenshots: kindBool, keyDeduplicate: kindBool,
	keyIncludeRules: kindBool, keyCrossRefType: kindString, keyExtractor: kindString,
	keyLLMProvider: kindString, keyLLMModel: kindString, keyLLMBaseURL: kindString,
	keyLLMAPIKey: kindString, keyLLMRate: kindFloat,
	keyCompanyProvider: kindString, keyCompanyModel: kindString, keyCompanyBaseURL: kindString,
	keyCompanyAPIKey: kindString,
	keyStorageBackend: kindString, keyPostgresDSN: kindString, keyCacheSize: kindInt,
	keyScreenshotBackend: kindString, keyScreenshotDir: kindString,
	keyS3Endpoint: kindString, keyS3Region: kindString, keyS3AccessKey: kindString,
	keyS3SecretKey: kindString, keyS3Bucket: kindString, keyS3UseSSL: kindBool,
	keyRulesDisabled: kindList, keyRulesMinSeverity: kindString, keyDetectors: kindList,
}

// SettableKeys returns the keys accepted by Set, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Analysis: domain.AnalysisSettings{
			Method:              s.getMethod(defaults.Analysis.Method),
			ModelTimeoutSeconds: s.getInt(keyModelTimeout, defaults.Analysis.ModelTimeoutSeconds),
			PageChars:           s.getInt(keyPageChars, defaults.Analysis.PageChars),
			MaxUploadBytes:      s.getInt64(keyMaxUploadBytes, defaults.Analysis.MaxUploadBytes),
			Screenshots:         s.getBool(keyScreenshots, defaults.Analysis.Screenshots),
			Deduplicate:         s.getBool(keyDeduplicate, defaults.Analysis.Deduplicate),
			IncludeRules:        s.getBool(keyIncludeRules, defaults.Analysis.IncludeRules),
			Extractor:           s.getExtractor(defaults.Analysis.Extractor),
			CrossReferenceType:  s.getCrossRefType(defaults.Analysis.CrossReferenceType),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerSecond: s.configStore.GetFloat(keyLLMRate),
		},
		CompanyLLM: domain.LLMSettings{
			Provider: s.getProvider(keyCompanyProvider, defaults.CompanyLLM.Provider),
			Model:    s.getString(keyCompanyModel, defaults.CompanyLLM.Model),
			BaseURL:  s.configStore.GetString(keyCompanyBaseURL),
			APIKey:   s.configStore.GetString(keyCompanyAPIKey),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getStorageBackend(defaults.Storage.Backend),
			PostgresDSN: s.configStore.GetString(keyPostgresDSN),
			CacheSize:   s.getInt(keyCacheSize, defaults.Storage.CacheSize),
		},
		Screenshot: domain.ScreenshotSettings{
			Backend: s.getScreenshotBackend(defaults.Screenshot.Backend),
			Dir:     s.configStore.GetString(keyScreenshotDir),
			S3: domain.S3Settings{
				Endpoint:  s.configStore.GetString(keyS3Endpoint),
				Region:    s.configStore.GetString(keyS3Region),
				AccessKey: s.configStore.GetString(keyS3AccessKey),
				SecretKey: s.configStore.GetString(keyS3SecretKey),
				Bucket:    s.configStore.GetString(keyS3Bucket),
				UseSSL:    s.getBool(keyS3UseSSL, true),
			},
		},
		Rules: domain.RuleSettings{
			Disabled:    s.configStore.GetStringSlice(keyRulesDisabled),
			MinSeverity: s.getSeverity(defaults.Rules.MinSeverity),
		},
	}

	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.CompanyLLM.Model == "" {
		settings.CompanyLLM.Model = domain.DefaultLLMModels()[settings.CompanyLLM.Provider]
	}

	return settings, nil
}

// Save persists application settings.
// Secrets are only written when set so that values supplied through the
// environment are not copied into the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyMethod, settings.Analysis.Method},
		{keyModelTimeout, settings.Analysis.ModelTimeoutSeconds},
		{keyPageChars, settings.Analysis.PageChars},
		{keyMaxUploadBytes, settings.Analysis.MaxUploadBytes},
		{keyScreenshots, settings.Analysis.Screenshots},
		{keyDeduplicate, settings.Analysis.Deduplicate},
		{keyIncludeRules, settings.Analysis.IncludeRules},
		{keyExtractor, string(settings.Analysis.Extractor)},
		{keyCrossRefType, string(settings.Analysis.CrossReferenceType)},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRate, settings.LLM.RequestsPerSecond},
		{keyCompanyProvider, settings.CompanyLLM.Provider.String()},
		{keyCompanyModel, settings.CompanyLLM.Model},
		{keyCompanyBaseURL, settings.CompanyLLM.BaseURL},
		{keyStorageBackend, string(settings.Storage.Backend)},
		{keyCacheSize, settings.Storage.CacheSize},
		{keyScreenshotBackend, string(settings.Screenshot.Backend)},
		{keyScreenshotDir, settings.Screenshot.Dir},
		{keyS3Endpoint, settings.Screenshot.S3.Endpoint},
		{keyS3Region, settings.Screenshot.S3.Region},
		{keyS3Bucket, settings.Screenshot.S3.Bucket},
		{keyS3UseSSL, settings.Screenshot.S3.UseSSL},
		{keyRulesDisabled, nonNil(settings.Rules.Disabled)},
		{keyRulesMinSeverity, string(settings.Rules.MinSeverity)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct {
		key   string
		value string
	}{
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyCompanyAPIKey, settings.CompanyLLM.APIKey},
		{keyPostgresDSN, settings.Storage.PostgresDSN},
		{keyS3AccessKey, settings.Screenshot.S3.AccessKey},
		{keyS3SecretKey, settings.Screenshot.S3.SecretKey},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Keys returns the keys accepted by Set, sorted.
func (s *SettingsService) Keys() []string {
	return SettableKeys()
}

// Set validates and stores a single value given as text, e.g. from the CLI.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := validateEnum(key, value); err != nil {
		return err
	}

	var parsed any
	switch kind {
	case kindString:
		parsed = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindInt64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindList:
		parsed = splitList(value)
	}

	return s.configStore.Set(key, parsed)
}

func validateEnum(key, value string) error {
	var valid bool
	switch key {
	case keyMethod:
		_, err := domain.ParseProcessingMethod(value)
		valid = err == nil && value != ""
	case keyExtractor:
		valid = domain.ExtractorBackend(value).IsValid()
	case keyLLMProvider, keyCompanyProvider:
		valid = domain.AIProvider(value).IsValid()
	case keyStorageBackend:
		valid = domain.StorageBackend(value).IsValid()
	case keyScreenshotBackend:
		b := domain.ScreenshotBackend(value)
		valid = b == domain.ScreenshotS3 || b == domain.ScreenshotFilesystem
	case keyRulesMinSeverity:
		valid = domain.Severity(value).IsValid()
	case keyCrossRefType:
		t := domain.IssueType(value)
		valid = t == domain.IssueTypeCrossReference || t == domain.IssueTypeReference
	default:
		return nil
	}
	if !valid {
		return fmt.Errorf("%w: %q is not a valid value for %s", domain.ErrInvalidInput, value, key)
	}
	return nil
}

// SetMethod updates the default processing method.
func (s *SettingsService) SetMethod(method string) error {
	if _, err := domain.ParseProcessingMethod(method); err != nil || method == "" {
		return fmt.Errorf("invalid processing method: %s", method)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Analysis.Method = method
	return s.Save(settings)
}

// SetLLMProvider configures the external AI provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		defaults := domain.DefaultLLMModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.LLM.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks if current settings are valid for the configured method.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	method, err := domain.ParseProcessingMethod(settings.Analysis.Method)
	if err != nil {
		return err
	}

	switch method.(type) {
	case domain.ExternalAI:
		if !settings.LLM.IsConfigured() {
			return fmt.Errorf("processing method %q requires an LLM provider to be configured", method.Name())
		}
	case domain.CompanyLLM:
		if !settings.CompanyLLM.IsConfigured() {
			return fmt.Errorf("processing method %q requires the company LLM to be configured", method.Name())
		}
	}

	if settings.Storage.Backend == domain.StoragePostgres && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage backend postgres requires %s", keyPostgresDSN)
	}
	if settings.Analysis.Screenshots && settings.Screenshot.Backend == domain.ScreenshotS3 && !settings.Screenshot.S3.IsConfigured() {
		return fmt.Errorf("screenshot backend s3 requires endpoint, bucket and credentials")
	}

	return nil
}

// RequiresLLM returns true if the configured method needs a model.
func (s *SettingsService) RequiresLLM() bool {
	settings, err := s.Get()
	if err != nil {
		return false
	}
	switch settings.Analysis.Method {
	case domain.MethodCompanyLLM, domain.MethodExternalAI:
		return true
	default:
		return false
	}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetDetectorConfig returns the rule-based detector configuration.
// Per-detector keys live under "detectors.<name>.".
func (s *SettingsService) GetDetectorConfig() domain.DetectorConfig {
	cfg := domain.DetectorConfig{
		Detectors: []string{"sections", "numbering", "patterns"},
	}

	if names := s.configStore.GetStringSlice(keyDetectors); len(names) > 0 {
		cfg.Detectors = names
	}

	for _, name := range append(append([]string(nil), cfg.Detectors...), "model") {
		prefix := "detectors." + name + "."
		detCfg := s.loadDetectorConfig(prefix)
		if len(detCfg) > 0 {
			if cfg.DetectorConfigs == nil {
				cfg.DetectorConfigs = make(map[string]map[string]any)
			}
			cfg.DetectorConfigs[name] = detCfg
		}
	}

	return cfg
}

// loadDetectorConfig loads config keys with a given prefix into a map.
func (s *SettingsService) loadDetectorConfig(prefix string) map[string]any {
	cfg := make(map[string]any)

	knownKeys := []string{"issue_type", "context_radius", "min_severity", "max_matches", "timeout_seconds", "max_tokens"}
	for _, key := range knownKeys {
		fullKey := prefix + key
		if val, exists := s.configStore.Get(fullKey); exists {
			cfg[key] = val
		}
	}

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt64(key string, defaultVal int64) int64 {
	val := s.configStore.GetInt64(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getMethod(defaultVal string) string {
	val := s.configStore.GetString(keyMethod)
	if val == "" {
		return defaultVal
	}
	if _, err := domain.ParseProcessingMethod(val); err != nil {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getExtractor(defaultVal domain.ExtractorBackend) domain.ExtractorBackend {
	backend := domain.ExtractorBackend(s.configStore.GetString(keyExtractor))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getCrossRefType(defaultVal domain.IssueType) domain.IssueType {
	t := domain.IssueType(s.configStore.GetString(keyCrossRefType))
	if t != domain.IssueTypeCrossReference && t != domain.IssueTypeReference {
		return defaultVal
	}
	return t
}

func (s *SettingsService) getStorageBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getScreenshotBackend(defaultVal domain.ScreenshotBackend) domain.ScreenshotBackend {
	backend := domain.ScreenshotBackend(s.configStore.GetString(keyScreenshotBackend))
	if backend != domain.ScreenshotS3 && backend != domain.ScreenshotFilesystem {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getSeverity(defaultVal domain.Severity) domain.Severity {
	sev := domain.Severity(s.configStore.GetString(keyRulesMinSeverity))
	if !sev.IsValid() {
		return defaultVal
	}
	return sev
}

func splitList(value string) []string {
	items := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

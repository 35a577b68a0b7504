package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid(), p.String())
		assert.NotEqual(t, unknownDescription, p.Description())
		assert.NotEmpty(t, DefaultLLMModels()[p])
	}
	assert.False(t, AIProvider("bard").IsValid())
	assert.Equal(t, unknownDescription, AIProvider("bard").Description())
	assert.True(t, AIProviderOllama.IsLocal())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name string
		s    LLMSettings
		want bool
	}{
		{"empty", LLMSettings{}, false},
		{"ollama without key", LLMSettings{Provider: AIProviderOllama}, true},
		{"openai without key", LLMSettings{Provider: AIProviderOpenAI}, false},
		{"openai compatible without key", LLMSettings{Provider: AIProviderOpenAI, BaseURL: "http://llm.internal/v1"}, true},
		{"anthropic custom url without key", LLMSettings{Provider: AIProviderAnthropic, BaseURL: "http://proxy"}, false},
		{"gemini with key", LLMSettings{Provider: AIProviderGemini, APIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, MethodLocalPatterns, s.Analysis.Method)
	assert.Equal(t, 120, s.Analysis.ModelTimeoutSeconds)
	assert.Equal(t, 3000, s.Analysis.PageChars)
	assert.EqualValues(t, 10*1024*1024, s.Analysis.MaxUploadBytes)
	assert.Equal(t, ExtractorNative, s.Analysis.Extractor)
	assert.Equal(t, IssueTypeCrossReference, s.Analysis.CrossReferenceType)
	assert.False(t, s.Analysis.Deduplicate)
	assert.False(t, s.LLM.IsConfigured())
	assert.Equal(t, StorageSQLite, s.Storage.Backend)
	assert.Equal(t, SeverityLow, s.Rules.MinSeverity)
}

func TestBackends_IsValid(t *testing.T) {
	assert.True(t, ExtractorTabula.IsValid())
	assert.False(t, ExtractorBackend("ocr").IsValid())
	assert.True(t, StoragePostgres.IsValid())
	assert.False(t, StorageBackend("redis").IsValid())
}

func TestS3Settings_IsConfigured(t *testing.T) {
	assert.False(t, S3Settings{}.IsConfigured())
	assert.True(t, S3Settings{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "a", SecretKey: "s"}.IsConfigured())
}

func TestDetectorConfig(t *testing.T) {
	var empty DetectorConfig
	assert.Nil(t, empty.GetDetectorConfig("patterns"))

	cfg := DetectorConfig{DetectorConfigs: map[string]map[string]any{"patterns": {"min_severity": "high"}}}
	assert.Equal(t, "high", cfg.GetDetectorConfig("patterns")["min_severity"])
}

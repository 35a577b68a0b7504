package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
	"github.com/custodia-labs/docaudit/internal/detectors"
	"github.com/custodia-labs/docaudit/internal/detectors/model"
	"github.com/custodia-labs/docaudit/internal/logger"
	"github.com/custodia-labs/docaudit/internal/results"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// defaultFileName is used when an upload arrives without a name.
const defaultFileName = "document.pdf"

// AnalysisService runs the analysis pipeline for one document at a time.
// It holds no per-request state; concurrent calls are independent.
type AnalysisService struct {
	extractors  driven.ExtractorFactory
	registry    *detectors.Registry
	rules       *domain.RuleSet
	store       driven.AnalysisStore
	screenshots driven.ScreenshotService
	validator   driven.DocumentValidator
	llms        driven.LLMResolver
	prompts     driven.PromptStore
	settings    domain.AnalysisSettings
	detectorCfg domain.DetectorConfig
	minSeverity domain.Severity
	now         func() time.Time
	newID       func() string
}

// AnalysisOption configures an AnalysisService.
type AnalysisOption func(*AnalysisService)

// WithAnalysisStore persists every analysis. Without a store nothing is saved.
func WithAnalysisStore(store driven.AnalysisStore) AnalysisOption {
	return func(s *AnalysisService) { s.store = store }
}

// WithScreenshots enables screenshot capture for requests that ask for it.
func WithScreenshots(svc driven.ScreenshotService) AnalysisOption {
	return func(s *AnalysisService) { s.screenshots = svc }
}

// WithValidator checks uploads before extraction.
func WithValidator(v driven.DocumentValidator) AnalysisOption {
	return func(s *AnalysisService) { s.validator = v }
}

// WithLLMResolver enables the model-backed processing methods.
func WithLLMResolver(r driven.LLMResolver) AnalysisOption {
	return func(s *AnalysisService) { s.llms = r }
}

// WithPromptStore overrides the built-in model instruction.
func WithPromptStore(p driven.PromptStore) AnalysisOption {
	return func(s *AnalysisService) { s.prompts = p }
}

// WithAnalysisSettings replaces the default analysis settings.
func WithAnalysisSettings(settings domain.AnalysisSettings) AnalysisOption {
	return func(s *AnalysisService) { s.settings = settings }
}

// WithDetectorConfig sets the rule-based detector list and per-detector config.
func WithDetectorConfig(cfg domain.DetectorConfig) AnalysisOption {
	return func(s *AnalysisService) { s.detectorCfg = cfg }
}

// WithMinSeverity drops pattern matches below sev.
func WithMinSeverity(sev domain.Severity) AnalysisOption {
	return func(s *AnalysisService) { s.minSeverity = sev }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) AnalysisOption {
	return func(s *AnalysisService) { s.now = now }
}

// WithIDGenerator overrides record ID generation, for tests.
func WithIDGenerator(newID func() string) AnalysisOption {
	return func(s *AnalysisService) { s.newID = newID }
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(
	extractors driven.ExtractorFactory,
	registry *detectors.Registry,
	rules *domain.RuleSet,
	opts ...AnalysisOption,
) *AnalysisService {
	s := &AnalysisService{
		extractors: extractors,
		registry:   registry,
		rules:      rules,
		settings:   domain.DefaultAppSettings().Analysis,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze validates, extracts and scans a document with the requested
// processing method, then enriches and persists the result.
//
// Pipeline-level failures (invalid upload, extraction, model timeout or
// malformed model reply) are returned as errors. Screenshot and
// persistence failures only degrade the response.
func (s *AnalysisService) Analyze(ctx context.Context, req driving.AnalyzeRequest) (*driving.AnalyzeResponse, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: document is empty", domain.ErrInvalidInput)
	}

	method := req.Method
	if method == nil {
		m, err := domain.ParseProcessingMethod(s.settings.Method)
		if err != nil {
			return nil, err
		}
		if ext, ok := m.(domain.ExternalAI); ok {
			ext.IncludeRules = s.settings.IncludeRules
			m = ext
		}
		method = m
	}

	raw := &domain.RawDocument{
		FileName: fileNameOrDefault(req.FileName),
		MIMEType: "application/pdf",
		Content:  req.Data,
	}
	logger.Section("Analysing " + raw.FileName)
	logger.Debug("method=%s size=%d", method.Name(), raw.Size())

	var structureWarnings []string
	declaredPages, err := s.validate(raw)
	if errors.Is(err, domain.ErrMalformedStructure) {
		logger.Warn("%s: %v; extracting best effort", raw.FileName, err)
		structureWarnings = append(structureWarnings, err.Error())
		declaredPages, err = 0, nil
	}
	if err != nil {
		return nil, err
	}

	resp := &driving.AnalyzeResponse{PageCount: declaredPages}
	var (
		doc    *domain.Document
		issues []domain.Issue
	)

	switch m := method.(type) {
	case domain.ManualOnly:
		logger.Debug("manual review only, skipping detection")
	case domain.LocalPatterns:
		doc, issues, resp.Warnings, err = s.detect(ctx, raw, s.ruleBasedNames(), nil)
	case domain.ExternalAI:
		names := []string{model.Name}
		if m.IncludeRules {
			names = append(names, s.ruleBasedNames()...)
		}
		doc, issues, resp.Warnings, err = s.detectWithModel(ctx, raw, m, names)
	case domain.CompanyLLM:
		doc, issues, resp.Warnings, err = s.detectWithModel(ctx, raw, m, []string{model.Name})
	default:
		err = fmt.Errorf("%w: processing method %T", domain.ErrUnsupportedType, method)
	}
	if err != nil {
		return nil, err
	}
	resp.Warnings = append(structureWarnings, resp.Warnings...)

	result := results.Merge(raw.FileName, issues)
	if req.Deduplicate || s.settings.Deduplicate {
		before := result.Len()
		result.SetIssues(results.Deduplicate(result.Issues()))
		logger.Debug("deduplicated %d issues to %d", before, result.Len())
	}

	if doc != nil {
		resp.PageCount = doc.PageCount()
		resp.Approximate = doc.Approximate
	}

	if (req.Screenshots || s.settings.Screenshots) && s.screenshots != nil && !result.IsEmpty() {
		resp.Warnings = append(resp.Warnings, s.attachScreenshots(ctx, raw, doc, result)...)
	}

	resp.Result = result
	resp.Record = &domain.AnalysisRecord{
		ID:        s.newID(),
		FileName:  raw.FileName,
		Method:    method.Name(),
		Result:    result,
		CreatedAt: s.now().UTC(),
	}

	if !req.NoSave && s.store != nil {
		if err := s.store.Save(ctx, resp.Record); err != nil {
			logger.Warn("analysis %s not saved: %v", resp.Record.ID, err)
			resp.SaveError = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		} else {
			resp.Saved = true
		}
	}

	logger.Info("%s: %d issues on %d pages", raw.FileName, result.Len(), len(result.Summary().PagesAffected))
	return resp, nil
}

// Get retrieves a saved analysis.
func (s *AnalysisService) Get(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// List returns saved analyses, newest first.
func (s *AnalysisService) List(ctx context.Context, limit int) ([]domain.RecordSummary, error) {
	if s.store == nil {
		return []domain.RecordSummary{}, nil
	}
	return s.store.List(ctx, limit)
}

func (s *AnalysisService) validate(raw *domain.RawDocument) (int, error) {
	maxBytes := s.settings.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxUploadBytes
	}
	if s.validator == nil {
		if raw.Size() > maxBytes {
			return 0, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrDocumentTooLarge, raw.Size(), maxBytes)
		}
		return 0, nil
	}
	return s.validator.Validate(raw.Content, maxBytes)
}

func (s *AnalysisService) detectWithModel(
	ctx context.Context,
	raw *domain.RawDocument,
	method domain.ProcessingMethod,
	names []string,
) (*domain.Document, []domain.Issue, []string, error) {
	if s.llms == nil {
		return nil, nil, nil, fmt.Errorf("%w: no model configured for %s", domain.ErrLLMUnavailable, method.Name())
	}
	llm, err := s.llms.ResolveLLM(method)
	if err != nil {
		return nil, nil, nil, err
	}
	return s.detect(ctx, raw, names, llm)
}

func (s *AnalysisService) detect(
	ctx context.Context,
	raw *domain.RawDocument,
	names []string,
	llm driven.LLMService,
) (*domain.Document, []domain.Issue, []string, error) {
	doc, err := s.extract(ctx, raw)
	if err != nil {
		return nil, nil, nil, err
	}

	deps := detectors.Dependencies{
		Rules:        s.rules,
		LLM:          llm,
		Prompts:      s.prompts,
		Raw:          raw,
		ModelTimeout: time.Duration(s.settings.ModelTimeoutSeconds) * time.Second,
	}
	pipeline, err := s.registry.BuildPipeline(names, deps, s.effectiveDetectorConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build detectors: %w", err)
	}

	detected, err := pipeline.Detect(ctx, doc)
	if err != nil {
		return nil, nil, nil, err
	}

	warnings := make([]string, 0, len(detected.Warnings))
	for _, w := range detected.Warnings {
		warnings = append(warnings, w.Error())
	}
	return doc, detected.Issues, warnings, nil
}

func (s *AnalysisService) extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	backend := s.settings.Extractor
	if backend == "" {
		backend = domain.ExtractorNative
	}
	extractor, err := s.extractors.Create(backend, s.settings)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	done := logger.Timed("extraction (" + extractor.Name() + ")")
	doc, err := extractor.Extract(ctx, raw)
	done()
	if err != nil {
		var extractErr *domain.ExtractionError
		if errors.As(err, &extractErr) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &domain.ExtractionError{Backend: extractor.Name(), Err: err}
	}
	logger.Debug("extracted %d pages (approximate=%t)", doc.PageCount(), doc.Approximate)
	return doc, nil
}

// ruleBasedNames returns the configured rule-based detectors, or the defaults.
func (s *AnalysisService) ruleBasedNames() []string {
	if len(s.detectorCfg.Detectors) > 0 {
		return s.detectorCfg.Detectors
	}
	return detectors.RuleBased
}

// effectiveDetectorConfig folds analysis and rule settings into the
// per-detector config. Explicit per-detector keys win.
func (s *AnalysisService) effectiveDetectorConfig() domain.DetectorConfig {
	cfg := domain.DetectorConfig{
		Detectors:       s.detectorCfg.Detectors,
		DetectorConfigs: make(map[string]map[string]any),
	}
	for name, c := range s.detectorCfg.DetectorConfigs {
		copied := make(map[string]any, len(c))
		for k, v := range c {
			copied[k] = v
		}
		cfg.DetectorConfigs[name] = copied
	}

	setDefault := func(detector, key string, value any) {
		c := cfg.DetectorConfigs[detector]
		if c == nil {
			c = make(map[string]any)
			cfg.DetectorConfigs[detector] = c
		}
		if _, ok := c[key]; !ok {
			c[key] = value
		}
	}
	if s.settings.CrossReferenceType != "" {
		setDefault("sections", "issue_type", string(s.settings.CrossReferenceType))
	}
	if s.minSeverity.IsValid() {
		setDefault("patterns", "min_severity", string(s.minSeverity))
	}
	return cfg
}

// attachScreenshots captures each affected page once and links the image
// to every issue on it. Failures are logged and reported as warnings.
func (s *AnalysisService) attachScreenshots(
	ctx context.Context,
	raw *domain.RawDocument,
	doc *domain.Document,
	result *domain.AnalysisResult,
) []string {
	if doc == nil {
		doc = &domain.Document{FileName: raw.FileName}
	}

	var warnings []string
	urls := make(map[int]string)
	for _, page := range result.Summary().Pages() {
		if ctx.Err() != nil {
			break
		}
		url, err := s.screenshots.Capture(ctx, raw, doc, page)
		if err != nil {
			logger.Warn("screenshot of page %d failed: %v", page, err)
			warnings = append(warnings, fmt.Sprintf("screenshot of page %d failed: %v", page, err))
			continue
		}
		if strings.TrimSpace(url) != "" {
			urls[page] = url
		}
	}

	for i, issue := range result.Issues() {
		if url, ok := urls[issue.Page]; ok {
			result.SetScreenshot(i, url)
		}
	}
	return warnings
}

func fileNameOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return defaultFileName
	}
	return name
}

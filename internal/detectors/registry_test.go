package detectors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/detectors/model"
	"github.com/custodia-labs/docaudit/internal/detectors/patterns"
)

type stubLLM struct{}

func (stubLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return `{"issues":[]}`, nil
}
func (stubLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	return "", nil
}
func (stubLLM) ModelName() string          { return "stub" }
func (stubLLM) Ping(context.Context) error { return nil }
func (stubLLM) Close() error               { return nil }

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if len(r.Names()) != 0 {
		t.Errorf("expected empty registry, got %v", r.Names())
	}
}

func TestRegistry_Build_Success(t *testing.T) {
	r := NewRegistry()
	r.Register("mock", func(_ Dependencies, _ map[string]any) (driven.Detector, error) {
		return &mockDetector{name: "mock"}, nil
	})

	det, err := r.Build("mock", Dependencies{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Name() != "mock" {
		t.Errorf("expected mock, got %s", det.Name())
	}
}

func TestRegistry_Build_Unknown(t *testing.T) {
	_, err := NewRegistry().Build("nope", Dependencies{}, nil)
	if !errors.Is(err, domain.ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	for _, name := range []string{"sections", "numbering", "patterns", "model"} {
		if !r.Has(name) {
			t.Errorf("expected %s to be registered", name)
		}
	}
	want := []string{"model", "numbering", "patterns", "sections"}
	got := r.Names()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBuildPipeline_RuleBased(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := r.BuildPipeline(RuleBased, Dependencies{}, domain.DetectorConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("expected 3 detectors, got %d", p.Len())
	}

	doc := &domain.Document{
		FileName: "sub.pdf",
		Pages:    []string{"Section 1: Intro", "As stated in Section 5, ..."},
	}
	result, err := p.Detect(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var crossRefs []domain.Issue
	for _, issue := range result.Issues {
		if issue.Type == domain.IssueTypeCrossReference {
			crossRefs = append(crossRefs, issue)
		}
	}
	if len(crossRefs) != 1 {
		t.Fatalf("expected 1 cross_reference issue, got %d", len(crossRefs))
	}
	if crossRefs[0].Page != 2 {
		t.Errorf("expected page 2, got %d", crossRefs[0].Page)
	}
}

func TestBuildSections_Config(t *testing.T) {
	det, err := buildSections(Dependencies{}, map[string]any{"issue_type": "reference", "context_radius": int64(10)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issues, err := det.Detect(context.Background(), &domain.Document{Pages: []string{"see Section 9"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 1 || issues[0].Type != domain.IssueTypeReference {
		t.Errorf("expected one reference issue, got %+v", issues)
	}

	if _, err := buildSections(Dependencies{}, map[string]any{"issue_type": "typo"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad issue_type, got %v", err)
	}
}

func TestBuildPatterns_Config(t *testing.T) {
	rules := domain.NewRuleSet(patterns.DefaultRules())

	det, err := buildPatterns(Dependencies{Rules: rules}, map[string]any{"min_severity": "high", "max_matches": 5.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.(*patterns.Detector).Rules() != rules {
		t.Error("expected detector to use the shared rule set")
	}

	if _, err := buildPatterns(Dependencies{}, map[string]any{"min_severity": "extreme"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuildModel(t *testing.T) {
	if _, err := buildModel(Dependencies{}, nil); !errors.Is(err, domain.ErrLLMUnavailable) {
		t.Errorf("expected ErrLLMUnavailable without a provider, got %v", err)
	}

	det, err := buildModel(Dependencies{LLM: stubLLM{}, ModelTimeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := det.(*model.Detector).Timeout(); got != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", got)
	}

	det, err = buildModel(Dependencies{LLM: stubLLM{}}, map[string]any{"timeout_seconds": 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := det.(*model.Detector).Timeout(); got != 7*time.Second {
		t.Errorf("expected 7s timeout, got %s", got)
	}
}

func TestGetIntFromConfig(t *testing.T) {
	cfg := map[string]any{
		"int":    5,
		"int64":  int64(6),
		"float":  7.0,
		"string": "8",
	}

	tests := map[string]int{"int": 5, "int64": 6, "float": 7, "string": 0, "missing": 0}
	for key, want := range tests {
		if got := getIntFromConfig(cfg, key); got != want {
			t.Errorf("getIntFromConfig(%q) = %d, want %d", key, got, want)
		}
	}
}

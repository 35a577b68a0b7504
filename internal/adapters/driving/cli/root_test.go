package cli

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docaudit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
	"github.com/custodia-labs/docaudit/internal/core/services"
)

// fakeAnalysis is an in-memory driving.AnalysisService.
type fakeAnalysis struct {
	issues   []domain.Issue
	err      error
	records  map[string]*domain.AnalysisRecord
	requests []driving.AnalyzeRequest
}

func (f *fakeAnalysis) Analyze(_ context.Context, req driving.AnalyzeRequest) (*driving.AnalyzeResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	result := domain.NewAnalysisResult(req.FileName, f.issues)
	record := &domain.AnalysisRecord{
		ID:        "rec-1",
		FileName:  req.FileName,
		Method:    domain.MethodLocalPatterns,
		Result:    result,
		CreatedAt: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	if req.Method != nil {
		record.Method = req.Method.Name()
	}
	resp := &driving.AnalyzeResponse{Result: result, Record: record, PageCount: 4}
	if !req.NoSave {
		f.records[record.ID] = record
		resp.Saved = true
	}
	return resp, nil
}

func (f *fakeAnalysis) Get(_ context.Context, id string) (*domain.AnalysisRecord, error) {
	if rec, ok := f.records[id]; ok {
		return rec, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAnalysis) List(_ context.Context, limit int) ([]domain.RecordSummary, error) {
	out := make([]domain.RecordSummary, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, domain.RecordSummary{
			ID: r.ID, FileName: r.FileName, Method: r.Method,
			IssueCount: r.Result.Len(), CreatedAt: r.CreatedAt,
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeEmail records the inputs it was given.
type fakeEmail struct {
	email  *domain.GeneratedEmail
	err    error
	inputs *domain.EmailInputs
}

func (f *fakeEmail) Compose(_ context.Context, inputs *domain.EmailInputs) (*domain.GeneratedEmail, error) {
	f.inputs = inputs
	return f.email, f.err
}

// testServices exposes the fakes installed by setupTestServices.
type testServices struct {
	analysis *fakeAnalysis
	email    *fakeEmail
	config   *memory.ConfigStore
}

var current *testServices

func testRules() []domain.PatternRule {
	return []domain.PatternRule{
		{
			ID: "teh", Name: "Common typo", Pattern: regexp.MustCompile(`\bteh\b`),
			Type: domain.IssueTypeTypo, Severity: domain.SeverityMedium, Enabled: true, Global: true,
		},
		{
			ID: "double-space", Name: "Double space", Pattern: regexp.MustCompile(`\S {2,}\S`),
			Type: domain.IssueTypeSpacing, Severity: domain.SeverityLow, Enabled: true, Global: true,
		},
	}
}

// setupTestServices installs fakes and in-memory services and returns a cleanup func.
func setupTestServices() func() {
	config := memory.NewConfigStore()
	current = &testServices{
		analysis: &fakeAnalysis{records: map[string]*domain.AnalysisRecord{}},
		email: &fakeEmail{email: &domain.GeneratedEmail{
			Subject:               "Subscription documents for Growth Fund II",
			BodyText:              "Dear Jane,\n\nPlease review the points below.",
			BodyHTML:              "<p>Dear Jane,</p>",
			ToneCheckPassed:       true,
			ReferencesCheckPassed: false,
			Flags:                 []domain.Flag{{Type: domain.FlagWarning, Message: "typo on p. 9 has no page in the document"}},
		}},
		config: config,
	}

	SetServices(&Services{
		Analysis: current.analysis,
		Email:    current.email,
		Rules:    services.NewRuleService(domain.NewRuleSet(testRules()), config),
		Settings: services.NewSettingsService(config, nil),
	})
	resetCommandState()

	return func() {
		SetServices(nil)
		resetCommandState()
		current = nil
	}
}

// resetCommandState restores flag variables between executions of rootCmd.
func resetCommandState() {
	analyzeMethod, analyzeProvider, analyzeModel, analyzeOutput = "", "", "", ""
	analyzeIncludeRules, analyzeJSON, analyzeScreenshots, analyzeDedupe, analyzeNoSave = false, false, false, false, false
	emailCustomer, emailAddress, emailCompany, emailRespondBy, emailSender = "", "", "", "", ""
	emailFunds = nil
	emailJSON, emailHTML = false, false
	historyLimit, historyJSON = 20, false
	rulesJSON = false
	mcpHTTPAddr = ""
	globalOpts = GlobalOptions{}
}

// execute runs rootCmd with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docaudit", rootCmd.Use)
	assert.Contains(t, rootCmd.Long, "subscription PDFs")
}

func TestRootCmd_HasGlobalFlags(t *testing.T) {
	verbose := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config-dir"))
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "email", "history", "rules", "settings", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestBootstrap_RunsBeforeCommands(t *testing.T) {
	defer setupTestServices()()

	var got GlobalOptions
	released := false
	SetBootstrap(func(_ context.Context, opts GlobalOptions) (*Services, func(), error) {
		got = opts
		return &Services{Analysis: current.analysis, Rules: services.NewRuleService(domain.NewRuleSet(testRules()), nil)},
			func() { released = true }, nil
	})
	defer SetBootstrap(nil)

	out, err := execute(t, "--config-dir", "/tmp/docaudit-test", "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "teh")
	assert.Equal(t, "/tmp/docaudit-test", got.ConfigDir)

	release()
	assert.True(t, released)
}

func TestBootstrap_SkippedForVersion(t *testing.T) {
	defer setupTestServices()()

	called := false
	SetBootstrap(func(context.Context, GlobalOptions) (*Services, func(), error) {
		called = true
		return nil, nil, errors.New("should not run")
	})
	defer SetBootstrap(nil)

	_, err := execute(t, "version")
	require.NoError(t, err)
	assert.False(t, called)
}

func TestBootstrap_ErrorStopsCommand(t *testing.T) {
	defer setupTestServices()()

	SetBootstrap(func(context.Context, GlobalOptions) (*Services, func(), error) {
		return nil, nil, errors.New("config directory unreadable")
	})
	defer SetBootstrap(nil)

	_, err := execute(t, "history", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config directory unreadable")
}

func TestExecute_ReleasesServices(t *testing.T) {
	defer setupTestServices()()

	released := 0
	SetBootstrap(func(context.Context, GlobalOptions) (*Services, func(), error) {
		return &Services{Analysis: current.analysis}, func() { released++ }, nil
	})
	defer SetBootstrap(nil)

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"history", "list"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, Execute(context.Background()))
	assert.Equal(t, 1, released)
}

func TestNoServices_ReportsNotConfigured(t *testing.T) {
	SetServices(nil)
	resetCommandState()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"analyze", "x.pdf"}, "analysis service not configured"},
		{[]string{"history", "list"}, "analysis service not configured"},
		{[]string{"rules", "list"}, "rule service not configured"},
		{[]string{"settings", "show"}, "settings service not configured"},
		{[]string{"email", "rec-1", "--customer", "Jane", "--respond-by", "2026-11-02"}, "email service not configured"},
		{[]string{"mcp"}, "analysis service is required"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			resetCommandState()
		})
	}
}

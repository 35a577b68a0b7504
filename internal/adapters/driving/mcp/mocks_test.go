package mcp

import (
	"context"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
)

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	response  *driving.AnalyzeResponse
	record    *domain.AnalysisRecord
	summaries []domain.RecordSummary
	err       error

	lastRequest driving.AnalyzeRequest
	lastLimit   int
}

func (m *mockAnalysisService) Analyze(_ context.Context, req driving.AnalyzeRequest) (*driving.AnalyzeResponse, error) {
	m.lastRequest = req
	return m.response, m.err
}

func (m *mockAnalysisService) Get(_ context.Context, _ string) (*domain.AnalysisRecord, error) {
	if m.record == nil && m.err == nil {
		return nil, domain.ErrNotFound
	}
	return m.record, m.err
}

func (m *mockAnalysisService) List(_ context.Context, limit int) ([]domain.RecordSummary, error) {
	m.lastLimit = limit
	return m.summaries, m.err
}

// mockEmailService is a mock implementation of driving.EmailService.
type mockEmailService struct {
	email *domain.GeneratedEmail
	err   error

	lastInputs *domain.EmailInputs
}

func (m *mockEmailService) Compose(_ context.Context, inputs *domain.EmailInputs) (*domain.GeneratedEmail, error) {
	m.lastInputs = inputs
	return m.email, m.err
}

// mockRuleService is a mock implementation of driving.RuleService.
type mockRuleService struct {
	rules []driving.RuleInfo
	err   error
}

func (m *mockRuleService) List() []driving.RuleInfo { return m.rules }

func (m *mockRuleService) Enable(_ string) error { return m.err }

func (m *mockRuleService) Disable(_ string) error { return m.err }

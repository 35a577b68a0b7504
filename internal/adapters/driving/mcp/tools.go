package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
)

// respondByLayout is the date format accepted for email deadlines.
const respondByLayout = "2006-01-02"

// AnalyzeInput is the input schema for the analyze_document tool.
type AnalyzeInput struct {
	Path         string `json:"path,omitempty" jsonschema:"local path of the PDF to analyse"`
	Content      string `json:"content,omitempty" jsonschema:"base64-encoded PDF bytes, used when path is empty"`
	FileName     string `json:"file_name,omitempty" jsonschema:"file name recorded with the analysis"`
	Method       string `json:"method,omitempty" jsonschema:"company_llm, external_ai, local_patterns or manual_only (default from settings)"`
	Provider     string `json:"provider,omitempty" jsonschema:"provider override for external_ai"`
	Model        string `json:"model,omitempty" jsonschema:"model override for company_llm or external_ai"`
	IncludeRules bool   `json:"include_rules,omitempty" jsonschema:"also run the rule detectors with external_ai"`
	Screenshots  bool   `json:"screenshots,omitempty" jsonschema:"capture a screenshot of each affected page"`
	Deduplicate  bool   `json:"deduplicate,omitempty" jsonschema:"collapse identical issues"`
	NoSave       bool   `json:"no_save,omitempty" jsonschema:"do not keep the analysis in history"`
}

// AnalyzeOutput is the output schema for the analyze_document tool.
type AnalyzeOutput struct {
	AnalysisID  string         `json:"analysis_id"`
	Saved       bool           `json:"saved"`
	FileName    string         `json:"file_name"`
	Method      string         `json:"method"`
	PageCount   int            `json:"page_count"`
	Approximate bool           `json:"approximate_pages"`
	Issues      []domain.Issue `json:"issues"`
	Summary     SummaryOutput  `json:"summary"`
	Warnings    []string       `json:"warnings,omitempty"`
}

// SummaryOutput is the derived summary of an issue list.
type SummaryOutput struct {
	IssueCount    int   `json:"issue_count"`
	PagesAffected []int `json:"pages_affected"`
}

// FundInput names one fund in an email request.
type FundInput struct {
	Name string `json:"name" jsonschema:"fund name"`
	Code string `json:"code,omitempty" jsonschema:"fund code"`
}

// ComposeEmailInput is the input schema for the compose_email tool.
type ComposeEmailInput struct {
	AnalysisID    string         `json:"analysis_id,omitempty" jsonschema:"saved analysis whose issues the email raises"`
	Issues        []domain.Issue `json:"issues,omitempty" jsonschema:"issues to raise when no analysis_id is given"`
	CustomerName  string         `json:"customer_name" jsonschema:"name of the customer addressed"`
	CustomerEmail string         `json:"customer_email,omitempty" jsonschema:"customer email address"`
	Company       string         `json:"company,omitempty" jsonschema:"customer company"`
	Funds         []FundInput    `json:"funds" jsonschema:"funds the subscription relates to"`
	RespondBy     string         `json:"respond_by" jsonschema:"reply deadline as YYYY-MM-DD"`
	SenderName    string         `json:"sender_name,omitempty" jsonschema:"name used in the signature"`
}

// RulesInput is the input schema for the list_rules tool.
type RulesInput struct {
	Type        string `json:"type,omitempty" jsonschema:"only rules emitting this issue type"`
	EnabledOnly bool   `json:"enabled_only,omitempty" jsonschema:"skip disabled rules"`
}

// RulesOutput is the output schema for the list_rules tool.
type RulesOutput struct {
	Rules []RuleOutput `json:"rules"`
	Count int          `json:"count"`
}

// RuleOutput represents a single pattern rule.
type RuleOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Pattern  string `json:"pattern"`
	Enabled  bool   `json:"enabled"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_document",
		Description: "Check a subscription PDF for typos, broken cross-references, numbering gaps and logic points",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compose_email",
		Description: "Draft the confirmation email raising an analysis' issues with the customer",
	}, s.handleComposeEmail)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List the local pattern rules and whether they are enabled",
	}, s.handleListRules)
}

// handleAnalyze handles the analyze_document tool invocation.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	data, fileName, err := readDocument(input)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	method, err := buildMethod(input.Method, input.Provider, input.Model, input.IncludeRules)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	resp, err := s.ports.Analysis.Analyze(ctx, driving.AnalyzeRequest{
		FileName:    fileName,
		Data:        data,
		Method:      method,
		Screenshots: input.Screenshots,
		Deduplicate: input.Deduplicate,
		NoSave:      input.NoSave,
	})
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	summary := resp.Result.Summary()
	output := AnalyzeOutput{
		Saved:       resp.Saved,
		FileName:    resp.Result.FileName,
		PageCount:   resp.PageCount,
		Approximate: resp.Approximate,
		Issues:      resp.Result.Issues(),
		Summary: SummaryOutput{
			IssueCount:    summary.IssueCount,
			PagesAffected: summary.Pages(),
		},
		Warnings: resp.Warnings,
	}
	if output.Issues == nil {
		output.Issues = []domain.Issue{}
	}
	if resp.Record != nil {
		output.AnalysisID = resp.Record.ID
		output.Method = resp.Record.Method
	}
	if resp.SaveError != nil {
		output.Warnings = append(output.Warnings, resp.SaveError.Error())
	}

	return nil, output, nil
}

// handleComposeEmail handles the compose_email tool invocation.
func (s *Server) handleComposeEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ComposeEmailInput,
) (*mcp.CallToolResult, domain.GeneratedEmail, error) {
	if s.ports.Email == nil {
		return nil, domain.GeneratedEmail{}, ErrEmailUnavailable
	}

	respondBy, err := time.Parse(respondByLayout, strings.TrimSpace(input.RespondBy))
	if err != nil {
		return nil, domain.GeneratedEmail{}, fmt.Errorf("%w: respond_by must be YYYY-MM-DD", domain.ErrInvalidInput)
	}

	issues := input.Issues
	if input.AnalysisID != "" {
		record, err := s.ports.Analysis.Get(ctx, input.AnalysisID)
		if err != nil {
			return nil, domain.GeneratedEmail{}, fmt.Errorf("loading analysis %s: %w", input.AnalysisID, err)
		}
		issues = record.Result.Issues()
	}

	funds := make([]domain.Fund, 0, len(input.Funds))
	for _, f := range input.Funds {
		funds = append(funds, domain.Fund{Name: f.Name, Code: f.Code})
	}

	generated, err := s.ports.Email.Compose(ctx, &domain.EmailInputs{
		Customer: domain.Customer{
			Name:    input.CustomerName,
			Email:   input.CustomerEmail,
			Company: input.Company,
		},
		Funds:      funds,
		Issues:     issues,
		RespondBy:  respondBy,
		SenderName: input.SenderName,
	})
	if err != nil {
		return nil, domain.GeneratedEmail{}, err
	}
	if generated.Flags == nil {
		generated.Flags = []domain.Flag{}
	}

	return nil, *generated, nil
}

// handleListRules handles the list_rules tool invocation.
func (s *Server) handleListRules(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RulesInput,
) (*mcp.CallToolResult, RulesOutput, error) {
	if s.ports.Rules == nil {
		return nil, RulesOutput{}, ErrRulesUnavailable
	}

	var filter domain.IssueType
	if input.Type != "" {
		filter = domain.ParseIssueType(input.Type)
	}

	output := RulesOutput{Rules: []RuleOutput{}}
	for _, r := range s.ports.Rules.List() {
		if input.EnabledOnly && !r.Enabled {
			continue
		}
		if filter != "" && r.Type != filter {
			continue
		}
		output.Rules = append(output.Rules, RuleOutput{
			ID:       r.ID,
			Name:     r.Name,
			Type:     r.Type.String(),
			Severity: string(r.Severity),
			Pattern:  r.Pattern,
			Enabled:  r.Enabled,
		})
	}
	output.Count = len(output.Rules)

	return nil, output, nil
}

// readDocument returns the PDF bytes and file name from a path or inline content.
func readDocument(input AnalyzeInput) ([]byte, string, error) {
	fileName := input.FileName
	if input.Path != "" {
		data, err := os.ReadFile(input.Path)
		if err != nil {
			return nil, "", fmt.Errorf("reading %s: %w", input.Path, err)
		}
		if fileName == "" {
			fileName = filepath.Base(input.Path)
		}
		return data, fileName, nil
	}

	if input.Content == "" {
		return nil, "", fmt.Errorf("%w: path or content is required", domain.ErrInvalidInput)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input.Content))
	if err != nil {
		return nil, "", fmt.Errorf("%w: content is not valid base64", domain.ErrInvalidInput)
	}
	return data, fileName, nil
}

// buildMethod maps tool arguments to a processing method.
// An empty name returns nil so the configured method applies.
func buildMethod(name, provider, model string, includeRules bool) (domain.ProcessingMethod, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	return domain.BuildProcessingMethod(name, domain.MethodOverrides{
		Provider:     provider,
		Model:        model,
		IncludeRules: includeRules,
	})
}

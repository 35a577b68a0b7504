package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for docaudit resources.
	uriScheme = "docaudit://"

	// historyLimit bounds the analyses listed by the history resource.
	historyLimit = 100
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing saved analyses.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "analyses",
		Name:        "analyses",
		Description: "Saved analyses, newest first",
		MIMEType:    "application/json",
	}, s.handleAnalysesResource)

	// Template for a single analysis.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "analyses/{analysisId}",
		Name:        "analysis",
		Description: "Issues and summary of a saved analysis",
		MIMEType:    "application/json",
	}, s.handleAnalysisResource)
}

// handleAnalysesResource returns the saved analysis history.
func (s *Server) handleAnalysesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	summaries, err := s.ports.Analysis.List(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}

	type analysisInfo struct {
		ID         string    `json:"id"`
		FileName   string    `json:"file_name"`
		Method     string    `json:"method"`
		IssueCount int       `json:"issue_count"`
		CreatedAt  time.Time `json:"created_at"`
		URI        string    `json:"uri"`
	}

	infos := make([]analysisInfo, len(summaries))
	for i, sum := range summaries {
		infos[i] = analysisInfo{
			ID:         sum.ID,
			FileName:   sum.FileName,
			Method:     sum.Method,
			IssueCount: sum.IssueCount,
			CreatedAt:  sum.CreatedAt,
			URI:        uriScheme + "analyses/" + sum.ID,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling analyses: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleAnalysisResource returns one saved analysis.
func (s *Server) handleAnalysisResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// docaudit://analyses/{analysisId}
	id := extractAnalysisID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, err := s.ports.Analysis.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting analysis: %w", err)
	}

	payload := struct {
		ID        string                 `json:"id"`
		Method    string                 `json:"method"`
		CreatedAt time.Time              `json:"created_at"`
		Result    *domain.AnalysisResult `json:"result"`
	}{
		ID:        record.ID,
		Method:    record.Method,
		CreatedAt: record.CreatedAt,
		Result:    record.Result,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling analysis: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractAnalysisID extracts the analysis ID from a URI like docaudit://analyses/{analysisId}.
func extractAnalysisID(uri string) string {
	const prefix = uriScheme + "analyses/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

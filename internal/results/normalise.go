// Package results turns detector and model output into a normalised
// AnalysisResult.
package results

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// Normalise coerces every raw issue of every batch and returns them as one
// result, in batch order then issue order. Normalising an already
// normalised result changes nothing.
func Normalise(fileName string, batches ...[]domain.RawIssue) *domain.AnalysisResult {
	var issues []domain.Issue
	for _, batch := range batches {
		for _, raw := range batch {
			issues = append(issues, NormaliseIssue(raw))
		}
	}
	return domain.NewAnalysisResult(fileName, issues)
}

// NormaliseIssues re-applies coercion to typed issues, e.g. those from a
// foreign detector that may carry an unknown type or a zero page.
func NormaliseIssues(issues []domain.Issue) []domain.Issue {
	out := make([]domain.Issue, len(issues))
	for i, issue := range issues {
		out[i] = normaliseTyped(issue)
	}
	return out
}

// Merge concatenates detector batches, normalising each issue. No
// cross-detector de-duplication happens here; see Deduplicate.
func Merge(fileName string, batches ...[]domain.Issue) *domain.AnalysisResult {
	var issues []domain.Issue
	for _, batch := range batches {
		issues = append(issues, NormaliseIssues(batch)...)
	}
	return domain.NewAnalysisResult(fileName, issues)
}

// FromIssues wraps a single batch.
func FromIssues(fileName string, issues []domain.Issue) *domain.AnalysisResult {
	return Merge(fileName, issues)
}

// NormaliseIssue coerces one raw issue: page to a positive integer
// (default 1), type to the closed vocabulary, and every text field to a
// string (missing becomes "").
func NormaliseIssue(raw domain.RawIssue) domain.Issue {
	return domain.Issue{
		Page:          coercePage(raw["page"]),
		Type:          domain.ParseIssueType(coerceString(raw["type"])),
		Message:       coerceString(raw["message"]),
		Original:      coerceString(raw["original"]),
		Suggestion:    coerceString(raw["suggestion"]),
		LocationHint:  coerceString(raw["locationHint"]),
		ScreenshotURL: coerceString(raw["screenshotUrl"]),
	}
}

func normaliseTyped(issue domain.Issue) domain.Issue {
	if issue.Page < 1 {
		issue.Page = 1
	}
	issue.Type = domain.ParseIssueType(string(issue.Type))
	return issue
}

// ClampPages limits issue pages to [1, pageCount]. Models sometimes cite
// pages beyond the end of the document. pageCount <= 0 leaves pages as is.
func ClampPages(issues []domain.Issue, pageCount int) []domain.Issue {
	if pageCount <= 0 {
		return issues
	}
	for i := range issues {
		if issues[i].Page > pageCount {
			issues[i].Page = pageCount
		}
	}
	return issues
}

func coercePage(v any) int {
	var f float64
	switch p := v.(type) {
	case int:
		f = float64(p)
	case int64:
		f = float64(p)
	case float64:
		f = p
	case json.Number:
		n, err := p.Float64()
		if err != nil {
			return 1
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(p)), "p.")), 64)
		if err != nil {
			return 1
		}
		f = n
	default:
		return 1
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(b)
	}
}

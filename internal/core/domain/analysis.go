package domain

import (
	"encoding/json"
	"sort"
)

// Summary is the projection of an issue list. It is always derived.
type Summary struct {
	IssueCount    int
	PagesAffected map[int]struct{}
}

// Pages returns the affected pages in ascending order.
func (s Summary) Pages() []int {
	pages := make([]int, 0, len(s.PagesAffected))
	for p := range s.PagesAffected {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// AnalysisResult is the merged output of every detector that ran on a
// document. The issue list is kept in emission order and the summary is
// recomputed from it on every read, so the two can never disagree.
type AnalysisResult struct {
	FileName string
	issues   []Issue
}

// NewAnalysisResult creates a result holding a copy of issues.
func NewAnalysisResult(fileName string, issues []Issue) *AnalysisResult {
	r := &AnalysisResult{FileName: fileName}
	r.SetIssues(issues)
	return r
}

// Issues returns a copy of the issue list.
func (r *AnalysisResult) Issues() []Issue {
	out := make([]Issue, len(r.issues))
	copy(out, r.issues)
	return out
}

// Len returns the number of issues.
func (r *AnalysisResult) Len() int {
	return len(r.issues)
}

// SetIssues replaces the issue list.
func (r *AnalysisResult) SetIssues(issues []Issue) {
	r.issues = make([]Issue, len(issues))
	copy(r.issues, issues)
}

// Append adds issues at the end, preserving their order.
func (r *AnalysisResult) Append(issues ...Issue) {
	r.issues = append(r.issues, issues...)
}

// SetScreenshot records the screenshot reference of issue i.
// It is the only post-hoc enrichment an issue accepts.
func (r *AnalysisResult) SetScreenshot(i int, url string) bool {
	if i < 0 || i >= len(r.issues) {
		return false
	}
	r.issues[i].ScreenshotURL = url
	return true
}

// Summary derives issue count and affected pages.
func (r *AnalysisResult) Summary() Summary {
	s := Summary{
		IssueCount:    len(r.issues),
		PagesAffected: make(map[int]struct{}, len(r.issues)),
	}
	for _, issue := range r.issues {
		s.PagesAffected[issue.Page] = struct{}{}
	}
	return s
}

// IsEmpty reports whether no issues were found. An empty result is a
// successful analysis, not a failure.
func (r *AnalysisResult) IsEmpty() bool {
	return len(r.issues) == 0
}

type summaryJSON struct {
	IssueCount    int   `json:"issueCount"`
	PagesAffected []int `json:"pagesAffected"`
}

type analysisResultJSON struct {
	FileName string      `json:"fileName"`
	Issues   []Issue     `json:"issues"`
	Summary  summaryJSON `json:"summary"`
}

// MarshalJSON writes the result with its derived summary.
func (r *AnalysisResult) MarshalJSON() ([]byte, error) {
	s := r.Summary()
	issues := r.issues
	if issues == nil {
		issues = []Issue{}
	}
	return json.Marshal(analysisResultJSON{
		FileName: r.FileName,
		Issues:   issues,
		Summary:  summaryJSON{IssueCount: s.IssueCount, PagesAffected: s.Pages()},
	})
}

// UnmarshalJSON reads a result. Any summary in the payload is ignored
// and recomputed from the issues.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var raw analysisResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.FileName = raw.FileName
	r.SetIssues(raw.Issues)
	return nil
}

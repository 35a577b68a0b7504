package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIssues() []Issue {
	return []Issue{
		{Page: 2, Type: IssueTypeTypo, Message: "Typo", Original: "teh"},
		{Page: 1, Type: IssueTypeNumbering, Message: "Gap"},
		{Page: 2, Type: IssueTypeSpacing, Message: "Double space"},
	}
}

func TestAnalysisResult_SummaryDerived(t *testing.T) {
	r := NewAnalysisResult("doc.pdf", sampleIssues())

	s := r.Summary()
	assert.Equal(t, 3, s.IssueCount)
	assert.Equal(t, []int{1, 2}, s.Pages())

	r.Append(Issue{Page: 7, Type: IssueTypeOther})
	s = r.Summary()
	assert.Equal(t, 4, s.IssueCount)
	assert.Equal(t, []int{1, 2, 7}, s.Pages())

	r.SetIssues(nil)
	s = r.Summary()
	assert.Equal(t, 0, s.IssueCount)
	assert.Empty(t, s.Pages())
	assert.True(t, r.IsEmpty())
}

func TestAnalysisResult_IssuesIsCopy(t *testing.T) {
	r := NewAnalysisResult("doc.pdf", sampleIssues())

	issues := r.Issues()
	issues[0].Message = "changed"
	issues = append(issues, Issue{Page: 9})

	assert.Equal(t, "Typo", r.Issues()[0].Message)
	assert.Equal(t, 3, r.Len())
}

func TestAnalysisResult_PreservesEmissionOrder(t *testing.T) {
	r := NewAnalysisResult("doc.pdf", sampleIssues())

	got := r.Issues()
	assert.Equal(t, IssueTypeTypo, got[0].Type)
	assert.Equal(t, IssueTypeNumbering, got[1].Type)
	assert.Equal(t, IssueTypeSpacing, got[2].Type)
}

func TestAnalysisResult_SetScreenshot(t *testing.T) {
	r := NewAnalysisResult("doc.pdf", sampleIssues())

	assert.True(t, r.SetScreenshot(1, "s3://bucket/p1.png"))
	assert.False(t, r.SetScreenshot(5, "x"))
	assert.False(t, r.SetScreenshot(-1, "x"))
	assert.Equal(t, "s3://bucket/p1.png", r.Issues()[1].ScreenshotURL)
}

func TestAnalysisResult_JSON(t *testing.T) {
	r := NewAnalysisResult("doc.pdf", sampleIssues())

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "doc.pdf", generic["fileName"])
	summary := generic["summary"].(map[string]any)
	assert.EqualValues(t, 3, summary["issueCount"])
	assert.Equal(t, []any{1.0, 2.0}, summary["pagesAffected"])
}

func TestAnalysisResult_UnmarshalRecomputesSummary(t *testing.T) {
	payload := `{"fileName":"a.pdf","issues":[{"page":4,"type":"typo","message":"m","original":"o","suggestion":"s","locationHint":"l"}],"summary":{"issueCount":99,"pagesAffected":[1,2,3]}}`

	var r AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, "a.pdf", r.FileName)
	assert.Equal(t, 1, r.Summary().IssueCount)
	assert.Equal(t, []int{4}, r.Summary().Pages())
}

func TestAnalysisResult_EmptyMarshalsArray(t *testing.T) {
	data, err := json.Marshal(NewAnalysisResult("empty.pdf", nil))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"issues":[]`)
	assert.Contains(t, string(data), `"pagesAffected":[]`)
}

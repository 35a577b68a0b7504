package domain

import "time"

// AnalysisRecord is a persisted analysis.
type AnalysisRecord struct {
	ID        string
	FileName  string
	Method    string
	Result    *AnalysisResult
	CreatedAt time.Time
}

// RecordSummary is the list view of a record; it skips loading issues.
type RecordSummary struct {
	ID         string
	FileName   string
	Method     string
	IssueCount int
	CreatedAt  time.Time
}

package results

import (
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

type dedupeKey struct {
	page     int
	typ      domain.IssueType
	original string
}

// Deduplicate drops issues whose (page, type, original) key was already
// seen, keeping the first. Original text is compared case-insensitively
// with whitespace collapsed. Issues with empty original text are kept.
func Deduplicate(issues []domain.Issue) []domain.Issue {
	seen := make(map[dedupeKey]struct{}, len(issues))
	out := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		original := strings.ToLower(strings.Join(strings.Fields(issue.Original), " "))
		if original == "" {
			out = append(out, issue)
			continue
		}
		key := dedupeKey{page: issue.Page, typ: issue.Type, original: original}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, issue)
	}
	return out
}

// Package sections indexes section header declarations and flags
// references to sections that are never declared.
package sections

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// labelPattern matches a section keyword followed by a roman numeral,
// an arabic number (optionally dotted, e.g. 4.2) or a single capital letter.
var labelPattern = regexp.MustCompile(
	`\b(Section|SECTION|Appendix|APPENDIX|Article|ARTICLE|Exhibit|EXHIBIT|Schedule|SCHEDULE|Annex|ANNEX)\s+([IVXLCDM]+|\d+(?:\.\d+)*|[A-Z])\b`,
)

// separatorPattern matches a header separator immediately after a label.
var separatorPattern = regexp.MustCompile(`^[:\-–—]`)

// occurrence is one label match within a page.
type occurrence struct {
	label string
	// start and end are byte offsets within the page.
	start, end int
	line       int
	declared   bool
}

// Label normalises a keyword and token pair, e.g. ("SECTION", "4") -> "Section 4".
func Label(keyword, token string) string {
	kw := strings.ToLower(keyword)
	return strings.ToUpper(kw[:1]) + kw[1:] + " " + token
}

// scanPage returns every label occurrence in page, in order.
// A match is a declaration when it opens its line or when it is
// immediately followed by a colon or dash.
func scanPage(page string) []occurrence {
	var out []occurrence
	offset := 0
	for lineNo, line := range strings.Split(page, "\n") {
		for _, m := range labelPattern.FindAllStringSubmatchIndex(line, -1) {
			declared := strings.TrimSpace(line[:m[0]]) == "" ||
				separatorPattern.MatchString(line[m[1]:])
			out = append(out, occurrence{
				label:    Label(line[m[2]:m[3]], line[m[4]:m[5]]),
				start:    offset + m[0],
				end:      offset + m[1],
				line:     lineNo + 1,
				declared: declared,
			})
		}
		offset += len(line) + 1
	}
	return out
}

// BuildIndex records every header-like declaration in pages. Mentions
// that are not declarations are ignored.
func BuildIndex(pages []string) *domain.SectionIndex {
	idx := domain.NewSectionIndex()
	for i, page := range pages {
		for _, occ := range scanPage(page) {
			if occ.declared {
				idx.Declare(occ.label, i+1)
			}
		}
	}
	return idx
}

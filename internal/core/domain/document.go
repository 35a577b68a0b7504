package domain

import "strings"

// Document is the decoded page-text projection of an uploaded PDF.
// Pages are stored 0-indexed; issues reference them 1-indexed.
type Document struct {
	// FileName is the name the document was uploaded under.
	FileName string

	// Pages holds the plain text of each page in physical order.
	Pages []string

	// Approximate is set when the backend found no page-break markers and
	// the text was split on a fixed character budget. Page numbers in
	// issues are then estimates.
	Approximate bool

	// Backend names the extractor that produced the pages.
	Backend string
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Page returns the text of 1-indexed page n, or "" when out of range.
func (d *Document) Page(n int) string {
	if n < 1 || n > len(d.Pages) {
		return ""
	}
	return d.Pages[n-1]
}

// FullText joins all pages with a newline separator.
func (d *Document) FullText() string {
	return strings.Join(d.Pages, "\n")
}

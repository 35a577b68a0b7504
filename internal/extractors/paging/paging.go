// Package paging splits extracted text into pages and cleans it up.
package paging

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FormFeed separates physical pages in pdftotext output.
const FormFeed = '\f'

// DefaultPageChars is the fallback page size when the text carries no
// page-break markers.
const DefaultPageChars = 3000

// SplitFormFeeds splits text on form feeds. A single trailing empty page,
// which pdftotext always emits after the final form feed, is dropped.
func SplitFormFeeds(text string) []string {
	pages := strings.Split(text, string(FormFeed))
	if len(pages) > 1 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// SplitFixed partitions text into chunks of size runes. Concatenating the
// chunks reproduces text exactly; the chunk count is ceil(runes/size).
// Empty text yields no chunks.
func SplitFixed(text string, size int) []string {
	if size <= 0 {
		size = DefaultPageChars
	}
	if text == "" {
		return nil
	}

	var pages []string
	start, count := 0, 0
	for i := range text {
		if count == size {
			pages = append(pages, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(pages, text[start:])
}

// Paginate splits text on form feeds when any are present and reports
// approximate=false. Otherwise it falls back to SplitFixed and reports
// approximate=true, since page numbers are then estimates.
func Paginate(text string, size int) (pages []string, approximate bool) {
	if strings.ContainsRune(text, FormFeed) {
		return SplitFormFeeds(text), false
	}
	pages = SplitFixed(text, size)
	if len(pages) == 0 {
		pages = []string{""}
	}
	return pages, true
}

// Clean normalises extracted page text: NFC composition, CRLF to LF,
// and NUL bytes removed. Form feeds are kept.
func Clean(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.ReplaceAll(text, "\x00", "")
}

// CleanAll applies Clean to every page in place and returns pages.
func CleanAll(pages []string) []string {
	for i, p := range pages {
		pages[i] = Clean(p)
	}
	return pages
}

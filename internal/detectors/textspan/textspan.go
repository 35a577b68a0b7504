// Package textspan holds the offset and context helpers shared by detectors.
package textspan

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Window returns up to radius runes either side of text[start:end],
// with line breaks folded to spaces and outer space trimmed.
func Window(text string, start, end, radius int) string {
	lo := start
	for n := 0; n < radius && lo > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for n := 0; n < radius && hi < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return Fold(text[lo:hi])
}

// Fold replaces line breaks and form feeds with spaces and trims.
func Fold(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\f', '\t':
			return ' '
		}
		return r
	}, s))
}

// PageMap resolves byte offsets in joined page text back to 1-indexed pages.
type PageMap struct {
	// starts[i] is the offset where page i+1 begins.
	starts []int
	sepLen int
	text   string
}

// Join concatenates pages with sep and records where each page starts.
func Join(pages []string, sep string) *PageMap {
	var b strings.Builder
	starts := make([]int, len(pages))
	for i, p := range pages {
		if i > 0 {
			b.WriteString(sep)
		}
		starts[i] = b.Len()
		b.WriteString(p)
	}
	return &PageMap{starts: starts, sepLen: len(sep), text: b.String()}
}

// Text returns the joined text.
func (m *PageMap) Text() string {
	return m.text
}

// Page returns the 1-indexed page containing offset. Offsets that fall on
// a separator belong to the preceding page. An empty map returns 1.
func (m *PageMap) Page(offset int) int {
	if len(m.starts) == 0 {
		return 1
	}
	i := sort.Search(len(m.starts), func(i int) bool { return m.starts[i] > offset })
	if i == 0 {
		return 1
	}
	return i
}

// Bounds returns the byte range of 1-indexed page within Text.
func (m *PageMap) Bounds(page int) (start, end int) {
	if page < 1 || page > len(m.starts) {
		return 0, 0
	}
	start = m.starts[page-1]
	if page == len(m.starts) {
		return start, len(m.text)
	}
	return start, m.starts[page] - m.sepLen
}

// Pages returns the number of pages mapped.
func (m *PageMap) Pages() int {
	return len(m.starts)
}

// LineAt returns the 1-indexed line number of offset within its page.
func (m *PageMap) LineAt(offset int) int {
	page := m.Page(offset)
	if len(m.starts) == 0 {
		return 1
	}
	start := m.starts[page-1]
	if offset < start {
		return 1
	}
	return strings.Count(m.text[start:offset], "\n") + 1
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}

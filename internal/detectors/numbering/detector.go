// Package numbering flags gaps and reversals in ordered list markers.
package numbering

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/detectors/textspan"
)

// Name is the detector name.
const Name = "numbering"

// Ensure Detector implements the interface.
var _ driven.Detector = (*Detector)(nil)

// markerPattern matches a leading list marker: one letter or an integer,
// then "." or ")", then whitespace or end of line.
var markerPattern = regexp.MustCompile(`^\s*([A-Za-z]|\d+)[.)](?:\s+|$)`)

type kind int

const (
	alphabetic kind = iota
	numeric
)

// marker is a parsed list marker on one line.
type marker struct {
	raw   string
	kind  kind
	value int
	line  int
	text  string
}

// Detector checks that consecutive list markers step by exactly one.
// Lists that restart after a non-marker line are judged independently.
type Detector struct {
	maxOriginal int
}

// New creates a numbering detector.
func New() *Detector {
	return &Detector{maxOriginal: 200}
}

// Name returns the detector name.
func (d *Detector) Name() string {
	return Name
}

// Detect scans each page for runs of marker lines. A run ends at the
// first line without a marker, blank lines included. Runs shorter than
// two markers are ignored.
func (d *Detector) Detect(ctx context.Context, doc *domain.Document) ([]domain.Issue, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	var issues []domain.Issue
	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var run []marker
		for lineNo, line := range strings.Split(page, "\n") {
			m, ok := parseMarker(line, lineNo+1)
			if !ok {
				issues = append(issues, d.judge(run, i+1)...)
				run = run[:0]
				continue
			}
			run = append(run, m)
		}
		issues = append(issues, d.judge(run, i+1)...)
	}
	return issues, nil
}

// judge reports every step in run that is not exactly +1. The first
// marker fixes the run's kind; a marker of the other kind is reported
// and the next marker is judged against the last one of the run's kind.
func (d *Detector) judge(run []marker, page int) []domain.Issue {
	if len(run) < 2 {
		return nil
	}

	var issues []domain.Issue
	prev := run[0]
	for _, cur := range run[1:] {
		if cur.kind != prev.kind {
			expected := format(prev.kind, prev.value+1, prev.raw)
			issues = append(issues, domain.Issue{
				Page:         page,
				Type:         domain.IssueTypeNumbering,
				Message:      fmt.Sprintf("List numbering switches style from %q to %q", prev.raw, cur.raw),
				Original:     textspan.Truncate(cur.text, d.maxOriginal),
				Suggestion:   fmt.Sprintf("Renumber %q as %q, or confirm the gap is intentional", cur.raw, expected),
				LocationHint: fmt.Sprintf("Page %d, line %d", page, cur.line),
			})
			continue
		}
		if cur.value != prev.value+1 {
			expected := format(prev.kind, prev.value+1, cur.raw)
			issues = append(issues, domain.Issue{
				Page:         page,
				Type:         domain.IssueTypeNumbering,
				Message:      fmt.Sprintf("List numbering jumps from %q to %q", prev.raw, cur.raw),
				Original:     textspan.Truncate(cur.text, d.maxOriginal),
				Suggestion:   fmt.Sprintf("Renumber %q as %q, or confirm the gap is intentional", cur.raw, expected),
				LocationHint: fmt.Sprintf("Page %d, line %d", page, cur.line),
			})
		}
		prev = cur
	}
	return issues
}

func parseMarker(line string, lineNo int) (marker, bool) {
	sub := markerPattern.FindStringSubmatch(line)
	if sub == nil {
		return marker{}, false
	}
	raw := sub[1]
	m := marker{raw: raw, line: lineNo, text: strings.TrimSpace(line)}

	if raw[0] < '0' || raw[0] > '9' {
		m.kind, m.value = alphabetic, int(strings.ToLower(raw)[0])
		return m, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Too large for an int; not a list marker.
		return marker{}, false
	}
	m.kind, m.value = numeric, n
	return m, true
}

// format renders value in the style of like: letters keep the case of like.
func format(k kind, value int, like string) string {
	if k == numeric {
		return strconv.Itoa(value)
	}
	if value > 'z' {
		return "?"
	}
	s := string(rune(value))
	if strings.ToUpper(like) == like {
		return strings.ToUpper(s)
	}
	return s
}

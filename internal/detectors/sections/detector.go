package sections

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/detectors/textspan"
)

// Name is the detector name.
const Name = "sections"

// DefaultContextRadius is the number of runes captured either side of a reference.
const DefaultContextRadius = 40

// Ensure Detector implements the interface.
var _ driven.Detector = (*Detector)(nil)

// Detector flags references to section labels that no page declares.
// Every occurrence is reported on its own, since each may need its own
// correction.
type Detector struct {
	issueType domain.IssueType
	radius    int
}

// Option configures the detector.
type Option func(*Detector)

// WithIssueType sets the emitted issue type. Only cross_reference and
// reference are accepted; anything else is ignored.
func WithIssueType(t domain.IssueType) Option {
	return func(d *Detector) {
		if t == domain.IssueTypeCrossReference || t == domain.IssueTypeReference {
			d.issueType = t
		}
	}
}

// WithContextRadius sets the context window radius in runes.
func WithContextRadius(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.radius = n
		}
	}
}

// New creates a cross-reference detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		issueType: domain.IssueTypeCrossReference,
		radius:    DefaultContextRadius,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the detector name.
func (d *Detector) Name() string {
	return Name
}

// Detect builds the declaration index and then reports every label
// occurrence, declared or not, whose label is missing from it.
// Issues come out in page order, then occurrence order within the page.
func (d *Detector) Detect(ctx context.Context, doc *domain.Document) ([]domain.Issue, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	idx := BuildIndex(doc.Pages)
	suggestion := declaredSuggestion(idx)

	var issues []domain.Issue
	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, occ := range scanPage(page) {
			if idx.Has(occ.label) {
				continue
			}
			issues = append(issues, domain.Issue{
				Page:         i + 1,
				Type:         d.issueType,
				Message:      fmt.Sprintf("Reference to %q has no matching section header in the document", occ.label),
				Original:     textspan.Window(page, occ.start, occ.end, d.radius),
				Suggestion:   suggestion,
				LocationHint: fmt.Sprintf("Page %d, line %d", i+1, occ.line),
			})
		}
	}
	return issues, nil
}

func declaredSuggestion(idx *domain.SectionIndex) string {
	labels := idx.Labels()
	if len(labels) == 0 {
		return "Verify the reference. Declared sections: none"
	}
	return "Verify the reference. Declared sections: " + strings.Join(labels, ", ")
}

package domain

// SectionIndex maps a normalised header label such as "Section 1" or
// "Appendix A" to the pages on which it is declared as a header.
// It is rebuilt for every document and never persisted.
type SectionIndex struct {
	order []string
	pages map[string][]int
}

// NewSectionIndex returns an empty index.
func NewSectionIndex() *SectionIndex {
	return &SectionIndex{pages: make(map[string][]int)}
}

// Declare records label as declared on page. Repeated declarations on the
// same page are collapsed.
func (s *SectionIndex) Declare(label string, page int) {
	pages, ok := s.pages[label]
	if !ok {
		s.order = append(s.order, label)
	}
	for _, p := range pages {
		if p == page {
			return
		}
	}
	s.pages[label] = append(pages, page)
}

// Has reports whether label was declared anywhere.
func (s *SectionIndex) Has(label string) bool {
	_, ok := s.pages[label]
	return ok
}

// Pages returns the pages declaring label in the order first seen.
func (s *SectionIndex) Pages(label string) []int {
	pages := s.pages[label]
	out := make([]int, len(pages))
	copy(out, pages)
	return out
}

// Labels returns every declared label in first-declaration order.
func (s *SectionIndex) Labels() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of distinct declared labels.
func (s *SectionIndex) Len() int {
	return len(s.order)
}

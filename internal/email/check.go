package email

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

var (
	pageRefPattern = regexp.MustCompile(`^p\. \d+$`)
	updatedPattern = regexp.MustCompile(`(?i)\b(?:updated|revised)\b`)
)

// termGroup is a set of synonyms that must not be mixed in one email.
type termGroup struct {
	concept string
	terms   []string
}

var termGroups = []termGroup{
	{concept: "investor", terms: []string{"Investor", "Subscriber", "Limited Partner", "LP", "Purchaser"}},
	{concept: "fund", terms: []string{"Fund", "Partnership", "Vehicle", "Issuer"}},
}

var termPatterns = compileTerms()

func compileTerms() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, g := range termGroups {
		for _, term := range g.terms {
			expr := `\b` + regexp.QuoteMeta(term) + `s?\b`
			if term != "LP" {
				expr = `(?i)` + expr
			}
			patterns[term] = regexp.MustCompile(expr)
		}
	}
	return patterns
}

// Check runs the deterministic post-processing checks on a draft.
//
// A question without a type is a hard failure and returns
// *domain.ValidationError. Everything else is reported as flags. inputs
// is optional; when given, customer and fund names are ignored by the
// terminology check so that "Acme Fund LP" does not count as two terms.
func Check(draft *domain.EmailDraft, inputs *domain.EmailInputs) ([]domain.Flag, error) {
	if draft == nil {
		return nil, &domain.ValidationError{Field: "draft", Index: -1, Reason: "missing"}
	}

	for i, q := range draft.Questions {
		if strings.TrimSpace(q.Type) == "" {
			return nil, &domain.ValidationError{Field: "type", Index: i, Reason: "must not be empty"}
		}
	}

	var flags []domain.Flag
	flags = append(flags, checkReferences(draft)...)
	flags = append(flags, checkUpdatedPDF(draft)...)
	flags = append(flags, checkTerminology(draftText(draft), properNames(inputs))...)
	return flags, nil
}

func checkReferences(draft *domain.EmailDraft) []domain.Flag {
	var flags []domain.Flag
	for i, q := range draft.Questions {
		ref := strings.TrimSpace(q.Evidence.PageRef)
		switch {
		case ref == "":
			flags = append(flags, errorf("questions[%d] %q: evidence.pageRef is missing", i, q.Title))
		case !pageRefPattern.MatchString(ref):
			flags = append(flags, warnf("questions[%d] %q: evidence.pageRef %q should look like \"p. 3\"", i, q.Title, ref))
		}
		if strings.TrimSpace(q.Evidence.SectionTitle) == "" {
			flags = append(flags, errorf("questions[%d] %q: evidence.sectionTitle is missing", i, q.Title))
		}
	}
	for i, typo := range draft.Typos {
		ref := strings.TrimSpace(typo.PageRef)
		if ref != "" && !pageRefPattern.MatchString(ref) {
			flags = append(flags, warnf("typos[%d]: pageRef %q should look like \"p. 3\"", i, ref))
		}
	}
	return flags
}

func checkUpdatedPDF(draft *domain.EmailDraft) []domain.Flag {
	var flags []domain.Flag
	for i, q := range draft.Questions {
		if q.RequestUpdatedPDF && !updatedPattern.MatchString(q.ProposedSolution) {
			flags = append(flags, warnf("questions[%d] %q: requests an updated PDF but the proposed solution does not ask for an updated or revised document", i, q.Title))
		}
	}
	return flags
}

func checkTerminology(text string, names []string) []domain.Flag {
	for _, name := range names {
		text = strings.ReplaceAll(text, name, " ")
	}

	var flags []domain.Flag
	for _, g := range termGroups {
		used := usedTerms(text, g.terms)
		if len(used) > 1 {
			flags = append(flags, warnf("Inconsistent %s terminology: %s", g.concept, quoteAll(used)))
		}
	}
	return flags
}

// usedTerms returns the distinct terms found, in group order. A longer
// term hides the shorter ones it contains.
func usedTerms(text string, terms []string) []string {
	byLength := append([]string(nil), terms...)
	sort.SliceStable(byLength, func(i, j int) bool { return len(byLength[i]) > len(byLength[j]) })

	found := make(map[string]bool)
	for _, term := range byLength {
		re := termPatterns[term]
		if re.MatchString(text) {
			found[term] = true
			text = re.ReplaceAllString(text, " ")
		}
	}

	var used []string
	for _, term := range terms {
		if found[term] {
			used = append(used, term)
		}
	}
	return used
}

func properNames(inputs *domain.EmailInputs) []string {
	if inputs == nil {
		return nil
	}
	var names []string
	for _, n := range []string{inputs.Customer.Name, inputs.Customer.Company} {
		if strings.TrimSpace(n) != "" {
			names = append(names, n)
		}
	}
	for _, f := range inputs.Funds {
		if strings.TrimSpace(f.Name) != "" {
			names = append(names, f.Name)
		}
	}
	// Longest first so a fund name is removed before a prefix of it.
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	return names
}

// draftText joins every prose field of the draft.
func draftText(d *domain.EmailDraft) string {
	parts := []string{d.Subject, d.Opening, d.AssumptionsBlock}
	for _, q := range d.Questions {
		parts = append(parts, q.Title, q.Issue, q.Evidence.SectionTitle, q.ProposedSolution)
	}
	for _, t := range d.Typos {
		parts = append(parts, t.Original, t.Correction)
	}
	parts = append(parts, d.Closing, d.Signature)
	parts = append(parts, d.FollowUps...)
	return strings.Join(parts, "\n")
}

func quoteAll(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}

func warnf(format string, args ...any) domain.Flag {
	return domain.Flag{Type: domain.FlagWarning, Message: fmt.Sprintf(format, args...)}
}

func errorf(format string, args ...any) domain.Flag {
	return domain.Flag{Type: domain.FlagError, Message: fmt.Sprintf(format, args...)}
}

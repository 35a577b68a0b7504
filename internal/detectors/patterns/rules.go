package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// DefaultRules returns the built-in rule table: general proofreading rules
// followed by the subscription-document logic points. Every rule is
// enabled. Each call returns fresh values, so callers may toggle freely.
func DefaultRules() []domain.PatternRule {
	rules := proofreadingRules()
	return append(rules, logicPointRules()...)
}

func proofreadingRules() []domain.PatternRule {
	return []domain.PatternRule{
		// Typos.
		{
			ID:       "typo-known",
			Name:     "Known misspelling",
			Pattern:  regexp.MustCompile(`(?i)\b(?:` + strings.Join(typoWords(), "|") + `)\b`),
			Type:     domain.IssueTypeTypo,
			Severity: domain.SeverityMedium,
			Global:   true,
			Message:  func(m string) string { return fmt.Sprintf("Possible typo: %q", m) },
			Suggestion: func(m string) string {
				if fix, ok := Correct(m); ok {
					return fmt.Sprintf("Replace %q with %q", m, fix)
				}
				return "Check the spelling"
			},
		},
		{
			ID:   "typo-repeated-word",
			Name: "Repeated word",
			Pattern: regexp.MustCompile(
				`(?i)\b(?:the\s+the|a\s+a|an\s+an|and\s+and|of\s+of|to\s+to|in\s+in|for\s+for|is\s+is|be\s+be|by\s+by|or\s+or|with\s+with|that\s+that|shall\s+shall)\b`,
			),
			Type:       domain.IssueTypeTypo,
			Severity:   domain.SeverityMedium,
			Global:     true,
			Message:    func(m string) string { return fmt.Sprintf("Repeated word: %q", collapse(m)) },
			Suggestion: func(m string) string { return fmt.Sprintf("Replace with %q", strings.Fields(m)[0]) },
		},

		// Spacing.
		{
			ID:         "spacing-double",
			Name:       "Double space inside a sentence",
			Pattern:    regexp.MustCompile(`[a-z,;]  +[a-z]`),
			Type:       domain.IssueTypeSpacing,
			Severity:   domain.SeverityLow,
			Global:     true,
			Message:    func(string) string { return "Multiple spaces between words" },
			Suggestion: func(m string) string { return fmt.Sprintf("Use a single space: %q", collapse(m)) },
		},
		{
			ID:         "spacing-before-punctuation",
			Name:       "Space before punctuation",
			Pattern:    regexp.MustCompile(`[A-Za-z0-9)] +[,;:!?]`),
			Type:       domain.IssueTypeSpacing,
			Severity:   domain.SeverityLow,
			Global:     true,
			Message:    func(string) string { return "Space before punctuation mark" },
			Suggestion: func(m string) string { return fmt.Sprintf("Remove the space: %q", strings.ReplaceAll(m, " ", "")) },
		},
		{
			ID:       "spacing-after-comma",
			Name:     "Missing space after comma or semicolon",
			Pattern:  regexp.MustCompile(`[a-z][,;][A-Za-z]`),
			Type:     domain.IssueTypeSpacing,
			Severity: domain.SeverityLow,
			Global:   true,
			Message:  func(string) string { return "Missing space after punctuation" },
			Suggestion: func(m string) string {
				return fmt.Sprintf("Insert a space: %q", m[:2]+" "+m[2:])
			},
		},

		// Punctuation.
		{
			ID:         "punctuation-doubled",
			Name:       "Doubled punctuation",
			Pattern:    regexp.MustCompile(`[,;:]{2,}|[!?]{2,}|[^.]\.\.(?:[^.]|$)`),
			Type:       domain.IssueTypePunctuation,
			Severity:   domain.SeverityLow,
			Global:     true,
			Message:    func(m string) string { return fmt.Sprintf("Doubled punctuation: %q", strings.TrimSpace(m)) },
			Suggestion: func(string) string { return "Use a single punctuation mark" },
		},
		{
			ID:         "punctuation-empty-parentheses",
			Name:       "Empty parentheses",
			Pattern:    regexp.MustCompile(`\(\s*\)`),
			Type:       domain.IssueTypePunctuation,
			Severity:   domain.SeverityMedium,
			Global:     true,
			Message:    func(string) string { return "Empty parentheses, likely a missing value" },
			Suggestion: func(string) string { return "Fill in the missing value or remove the parentheses" },
		},

		// Capitalization.
		{
			ID:       "capitalization-sentence-start",
			Name:     "Sentence starts in lower case",
			Pattern:  regexp.MustCompile(`[a-z]{2,}[.!?] +[a-z]{3,}`),
			Type:     domain.IssueTypeCapitalization,
			Severity: domain.SeverityLow,
			Global:   true,
			Accept:   notAbbreviation,
			Message:  func(string) string { return "Sentence does not start with a capital letter" },
			Suggestion: func(m string) string {
				i := strings.LastIndex(m, " ") + 1
				return fmt.Sprintf("Capitalise %q", strings.ToUpper(m[i:i+1])+m[i+1:])
			},
		},
		{
			ID:   "capitalization-defined-term",
			Name: "Defined term in lower case",
			Pattern: regexp.MustCompile(
				`\b(?:general partner|limited partner|management fee|capital commitment|subscription agreement|capital contribution)s?\b`,
			),
			Type:       domain.IssueTypeCapitalization,
			Severity:   domain.SeverityLow,
			Global:     true,
			Message:    func(m string) string { return fmt.Sprintf("Defined term %q is not capitalised", m) },
			Suggestion: func(m string) string { return fmt.Sprintf("Use %q if this refers to the defined term", titleCase(m)) },
		},

		// Currency.
		{
			ID:         "currency-space-after-symbol",
			Name:       "Space after currency symbol",
			Pattern:    regexp.MustCompile(`[$€£] +\d`),
			Type:       domain.IssueTypeFormatting,
			Severity:   domain.SeverityLow,
			Global:     true,
			Message:    func(string) string { return "Space between currency symbol and amount" },
			Suggestion: func(m string) string { return fmt.Sprintf("Write %q", strings.ReplaceAll(m, " ", "")) },
		},
		{
			ID:         "currency-missing-separators",
			Name:       "Amount without thousands separators",
			Pattern:    regexp.MustCompile(`[$€£]\d{4,}(?:\.\d{2})?\b`),
			Type:       domain.IssueTypeFormatting,
			Severity:   domain.SeverityMedium,
			Global:     true,
			Message:    func(m string) string { return fmt.Sprintf("Amount %q lacks thousands separators", m) },
			Suggestion: func(m string) string { return fmt.Sprintf("Write %q", groupThousands(m)) },
		},
		{
			ID:         "currency-single-decimal",
			Name:       "Amount with one decimal digit",
			Pattern:    regexp.MustCompile(`[$€£]\d{1,3}(?:,\d{3})*\.\d\b`),
			Type:       domain.IssueTypeFormatting,
			Severity:   domain.SeverityMedium,
			Global:     true,
			Message:    func(m string) string { return fmt.Sprintf("Amount %q has a single decimal digit", m) },
			Suggestion: func(m string) string { return fmt.Sprintf("Write %q", m+"0") },
		},
		{
			ID:         "currency-code-and-symbol",
			Name:       "Currency code and symbol together",
			Pattern:    regexp.MustCompile(`\b(?:USD|EUR|GBP)\s*[$€£]`),
			Type:       domain.IssueTypeFormatting,
			Severity:   domain.SeverityLow,
			Global:     true,
			Message:    func(m string) string { return fmt.Sprintf("Currency stated twice: %q", m) },
			Suggestion: func(string) string { return "Use either the currency code or the symbol" },
		},

		// Dates.
		{
			ID:         "date-ambiguous-numeric",
			Name:       "Ambiguous numeric date",
			Pattern:    regexp.MustCompile(`\b\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})\b`),
			Type:       domain.IssueTypeFormatting,
			Severity:   domain.SeverityMedium,
			Global:     true,
			Accept:     ambiguousDate,
			Message:    func(m string) string { return fmt.Sprintf("Date %q is ambiguous between day-first and month-first", m) },
			Suggestion: func(string) string { return "Write the month as a word, e.g. \"March 4, 2025\"" },
		},
		{
			ID:         "date-impossible-day",
			Name:       "Impossible calendar day",
			Pattern:    regexp.MustCompile(`\b(?:February\s+(?:29|3[01])|(?:April|June|September|November)\s+31)\b`),
			Type:       domain.IssueTypeFormatting,
			Severity:   domain.SeverityHigh,
			Global:     true,
			Message:    func(m string) string { return fmt.Sprintf("%q is not a valid date in most years", m) },
			Suggestion: func(string) string { return "Check the day of the month" },
		},
		{
			ID:         "date-placeholder",
			Name:       "Unfilled date placeholder",
			Pattern:    regexp.MustCompile(`(?i)\[date\]|\b(?:MM/DD/YYYY|DD/MM/YYYY)\b|_{3,}\s*,?\s*20(?:__|\d_)`),
			Type:       domain.IssueTypeFormatting,
			Severity:   domain.SeverityHigh,
			Global:     true,
			Message:    func(m string) string { return fmt.Sprintf("Date placeholder left unfilled: %q", m) },
			Suggestion: func(string) string { return "Enter the actual date" },
		},

		// Numbers.
		{
			ID:       "number-word-digit-mismatch",
			Name:     "Number word disagrees with digits",
			Pattern:  regexp.MustCompile(`(?i)\b(?:` + strings.Join(numberWordList(), "|") + `)\s*\(\d+\)`),
			Type:     domain.IssueTypeFormatting,
			Severity: domain.SeverityHigh,
			Global:   true,
			Accept:   numberMismatch,
			Message:  func(m string) string { return fmt.Sprintf("Number in words and digits disagree: %q", m) },
			Suggestion: func(m string) string {
				word, _ := splitNumber(m)
				return fmt.Sprintf("Use %s (%d) or correct the word", word, numberWords[strings.ToLower(word)])
			},
		},
		{
			ID:         "number-percent-spacing",
			Name:       "Space before percent sign",
			Pattern:    regexp.MustCompile(`\d +%`),
			Type:       domain.IssueTypeFormatting,
			Severity:   domain.SeverityLow,
			Global:     true,
			Message:    func(string) string { return "Space between number and percent sign" },
			Suggestion: func(m string) string { return fmt.Sprintf("Write %q", strings.ReplaceAll(m, " ", "")) },
		},
	}
}

// logicPoint builds a single-shot rule that asks the reviewer to confirm
// a subscription-document term. Only the first mention is reported.
func logicPoint(id, name, pattern, confirm string) domain.PatternRule {
	return domain.PatternRule{
		ID:       "logic-" + id,
		Name:     name,
		Pattern:  regexp.MustCompile(pattern),
		Type:     domain.IssueTypeLogicPoint,
		Severity: domain.SeverityMedium,
		Global:   false,
		Message: func(m string) string {
			return fmt.Sprintf("%s: confirm the terms around %q", name, m)
		},
		Suggestion: func(string) string { return confirm },
	}
}

func logicPointRules() []domain.PatternRule {
	rules := []domain.PatternRule{
		logicPoint("fund-exclusivity", "Fund exclusivity",
			`(?i)\b(?:exclusive(?:ly)?\s+(?:to|for)\s+(?:the\s+)?(?:fund|partnership)|sole\s+(?:investment\s+)?vehicle|exclusivity)\b`,
			"Confirm whether the subscription is exclusive to this fund or may be shared with parallel vehicles"),
		logicPoint("table-of-contents", "Table of contents",
			`(?i)\btable\s+of\s+contents\b`,
			"Confirm every entry in the table of contents exists and points at the right page"),
		logicPoint("governing-documents", "LPA/PA/PPM references",
			`(?i)\b(?:limited\s+partnership\s+agreement|partnership\s+agreement|private\s+placement\s+memorandum|offering\s+memorandum)\b|\b(?:LPA|PPM)\b`,
			"Confirm the referenced LPA, PA or PPM is the current version and the cited sections exist"),
		logicPoint("subscription-amount", "Subscription amount",
			`(?i)\b(?:subscription\s+amount|capital\s+commitment|commitment\s+amount)\b`,
			"Confirm the subscription amount matches in words, figures and on the signature page"),
		logicPoint("dates", "Key dates",
			`(?i)\b(?:effective\s+date|closing\s+date|initial\s+closing|final\s+closing)\b`,
			"Confirm the closing and effective dates are consistent throughout the document"),
		logicPoint("signature-page", "Signature page",
			`(?i)\b(?:signature\s+page|authori[sz]ed\s+signatory|in\s+witness\s+whereof)\b`,
			"Confirm the signature page is complete, with names, titles and dates for every signatory"),
		logicPoint("capital-call", "Capital calls",
			`(?i)\b(?:capital\s+calls?|drawdown\s+notices?|drawdowns?)\b`,
			"Confirm the capital call notice period and funding deadline"),
		logicPoint("management-fee", "Management fee",
			`(?i)\bmanagement\s+fees?\b`,
			"Confirm the management fee rate, basis and step-down dates"),
		logicPoint("carried-interest", "Carried interest",
			`(?i)\b(?:carried\s+interest|performance\s+allocation|hurdle\s+rate|preferred\s+return)\b`,
			"Confirm the carried interest percentage, hurdle and catch-up terms"),
		logicPoint("investment-period", "Investment period",
			`(?i)\binvestment\s+period\b`,
			"Confirm the length of the investment period and any extension rights"),
		logicPoint("key-person", "Key person",
			`(?i)\bkey[\s-]+(?:person|man)\b`,
			"Confirm who the key persons are and what happens on a key person event"),
		logicPoint("transfer-restrictions", "Transfer restrictions",
			`(?i)\b(?:transfer\s+restrictions?|restrictions?\s+on\s+transfer|may\s+not\s+(?:sell|assign|transfer))\b`,
			"Confirm the consent required to transfer the interest"),
		logicPoint("advisory-committee", "Advisory committee",
			`(?i)\b(?:advisory\s+(?:committee|board)|LPAC)\b`,
			"Confirm the composition of the advisory committee and whether the investor has a seat"),
		logicPoint("indemnification", "Indemnification",
			`(?i)\bindemnif(?:y|ied|ication|ies)\b`,
			"Confirm the scope of the indemnification and any caps"),
		logicPoint("tax-elections", "Tax elections",
			`(?i)\btax\s+elections?\b|\b(?:W-8BEN(?:-E)?|W-9|FATCA|CRS)\b`,
			"Confirm the tax forms to be provided and any elections the investor must make"),
		logicPoint("reporting", "Reporting",
			`(?i)\b(?:quarterly|annual|audited)\s+(?:reports?|reporting|financial\s+statements)\b`,
			"Confirm the reporting frequency and format"),
		logicPoint("termination", "Termination and withdrawal",
			`(?i)\b(?:termination|withdrawal|dissolution|early\s+redemption)\b`,
			"Confirm the termination and withdrawal provisions available to the investor"),
	}
	return rules
}

// LogicPointCategories returns the names of the logic-point rules in order.
func LogicPointCategories() []string {
	rules := logicPointRules()
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// abbreviations end in a period without ending the sentence.
var abbreviations = []string{"etc.", "approx.", "incl.", "vs.", "nos.", "cf.", "viz."}

func notAbbreviation(m string) bool {
	head := strings.ToLower(strings.Fields(m)[0])
	for _, a := range abbreviations {
		if strings.HasSuffix(head, a) {
			return false
		}
	}
	return true
}

// groupThousands inserts commas into the integer part of an amount.
func groupThousands(m string) string {
	symbolEnd := 0
	for i, r := range m {
		if r >= '0' && r <= '9' {
			symbolEnd = i
			break
		}
	}
	symbol, amount := m[:symbolEnd], m[symbolEnd:]
	intPart, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		intPart, frac = amount[:i], amount[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return symbol + b.String() + frac
}

// ambiguousDate accepts numeric dates where both leading parts could be a month.
func ambiguousDate(m string) bool {
	parts := strings.Split(m, "/")
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		return false
	}
	return a >= 1 && a <= 12 && b >= 1 && b <= 12 && a != b
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"thirty": 30, "forty": 40, "forty-five": 45, "fifty": 50, "sixty": 60, "seventy": 70,
	"eighty": 80, "ninety": 90, "hundred": 100,
}

func numberWordList() []string {
	words := make([]string, 0, len(numberWords))
	for w := range numberWords {
		words = append(words, w)
	}
	// Longest first so "forty-five" wins over "forty" and "seventeen"
	// over "seven".
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return words
}

// splitNumber separates "ten (11)" into its word and digits.
func splitNumber(m string) (word, digits string) {
	open := strings.IndexByte(m, '(')
	return strings.TrimSpace(m[:open]), strings.Trim(m[open:], "()")
}

func numberMismatch(m string) bool {
	word, digits := splitNumber(m)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return false
	}
	want, ok := numberWords[strings.ToLower(word)]
	return ok && want != n
}

package email

import (
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// Evaluate derives the check outcomes from flags. The tone check fails on
// any error flag; the references check fails on any flag about a
// pageRef or sectionTitle.
func Evaluate(flags []domain.Flag) (toneCheckPassed, referencesCheckPassed bool) {
	toneCheckPassed, referencesCheckPassed = true, true
	for _, f := range flags {
		if f.Type == domain.FlagError {
			toneCheckPassed = false
		}
		if isReferenceFlag(f) {
			referencesCheckPassed = false
		}
	}
	return toneCheckPassed, referencesCheckPassed
}

func isReferenceFlag(f domain.Flag) bool {
	return strings.Contains(f.Message, "pageRef") || strings.Contains(f.Message, "sectionTitle")
}

// Finalise checks and renders a draft into the email returned to callers.
// It never calls the model.
func Finalise(draft *domain.EmailDraft, inputs *domain.EmailInputs) (*domain.GeneratedEmail, error) {
	flags, err := Check(draft, inputs)
	if err != nil {
		return nil, err
	}

	html, text, err := Render(draft)
	if err != nil {
		return nil, err
	}

	tone, refs := Evaluate(flags)
	if flags == nil {
		flags = []domain.Flag{}
	}
	return &domain.GeneratedEmail{
		Subject:               draft.Subject,
		BodyHTML:              html,
		BodyText:              text,
		ToneCheckPassed:       tone,
		ReferencesCheckPassed: refs,
		Flags:                 flags,
		Draft:                 draft,
	}, nil
}

package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

const htmlBody = `<p>{{.Opening}}</p>
{{- with .AssumptionsBlock}}
<p>{{.}}</p>
{{- end}}
{{- if .Questions}}
<ol>
{{- range .Questions}}
<li>
<p><strong>{{.Title}}</strong></p>
<p><em>Issue:</em> {{.Issue}}</p>
<p><em>Evidence:</em> {{evidence .Evidence}}</p>
<p><em>Proposed solution:</em> {{.ProposedSolution}}</p>
</li>
{{- end}}
</ol>
{{- end}}
{{- if .Typos}}
<p>We also noted the following typographical corrections:</p>
<ul>
{{- range .Typos}}
<li>{{with .PageRef}}{{.}}: {{end}}&ldquo;{{.Original}}&rdquo; should read &ldquo;{{.Correction}}&rdquo;</li>
{{- end}}
</ul>
{{- end}}
<p>{{.Closing}}</p>
<p>{{lines .Signature}}</p>
`

const textBody = `{{.Opening}}
{{- with .AssumptionsBlock}}

{{.}}
{{- end}}
{{- range $i, $q := .Questions}}

{{inc $i}}. {{$q.Title}}
   Issue: {{$q.Issue}}
   Evidence: {{evidence $q.Evidence}}
   Proposed solution: {{$q.ProposedSolution}}
{{- end}}
{{- if .Typos}}

We also noted the following typographical corrections:
{{- range .Typos}}
 - {{with .PageRef}}{{.}}: {{end}}"{{.Original}}" should read "{{.Correction}}"
{{- end}}
{{- end}}

{{.Closing}}

{{.Signature}}
`

func evidence(e domain.Evidence) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(e.SectionTitle); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(e.PageRef); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.New("email.html").Funcs(htmltemplate.FuncMap{
		"evidence": evidence,
		"lines": func(s string) htmltemplate.HTML {
			escaped := htmltemplate.HTMLEscapeString(strings.TrimSpace(s))
			return htmltemplate.HTML(strings.ReplaceAll(escaped, "\n", "<br>\n"))
		},
	}).Parse(htmlBody))

	textTemplate = texttemplate.Must(texttemplate.New("email.txt").Funcs(texttemplate.FuncMap{
		"evidence": evidence,
		"inc":      func(i int) int { return i + 1 },
	}).Parse(textBody))
)

// Render produces the HTML and plain-text bodies of a draft. Output
// depends only on the draft.
func Render(draft *domain.EmailDraft) (html, text string, err error) {
	if draft == nil {
		return "", "", fmt.Errorf("%w: draft is nil", domain.ErrInvalidInput)
	}

	var hb bytes.Buffer
	if err := htmlTemplate.Execute(&hb, draft); err != nil {
		return "", "", fmt.Errorf("failed to render html body: %w", err)
	}

	var tb bytes.Buffer
	if err := textTemplate.Execute(&tb, draft); err != nil {
		return "", "", fmt.Errorf("failed to render text body: %w", err)
	}

	return hb.String(), tb.String(), nil
}

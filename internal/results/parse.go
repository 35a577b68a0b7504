package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

var (
	errNotObject     = errors.New("response is not a JSON object")
	errMissingIssues = errors.New("response has no issues array")
	errTrailingData  = errors.New("response has data after the JSON object")
)

// StripFences removes one surrounding triple-backtick fence, with or
// without a language tag, and trims whitespace.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseModelResult parses a model reply into raw issues. The reply must be
// exactly one JSON object, optionally fenced, with an "issues" array. Any
// other shape fails with *domain.ModelResponseError carrying the reply.
func ParseModelResult(reply string) ([]domain.RawIssue, error) {
	body := StripFences(reply)
	fail := func(err error) error {
		return &domain.ModelResponseError{Raw: reply, Err: err}
	}

	if !strings.HasPrefix(body, "{") {
		return nil, fail(errNotObject)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var envelope map[string]json.RawMessage
	if err := dec.Decode(&envelope); err != nil {
		return nil, fail(fmt.Errorf("decode: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fail(errTrailingData)
	}

	rawIssues, ok := envelope["issues"]
	if !ok || bytes.Equal(bytes.TrimSpace(rawIssues), []byte("null")) {
		return nil, fail(errMissingIssues)
	}

	// fileName and summary are ignored; the summary is always recomputed.
	var issues []domain.RawIssue
	issuesDec := json.NewDecoder(bytes.NewReader(rawIssues))
	issuesDec.UseNumber()
	if err := issuesDec.Decode(&issues); err != nil {
		return nil, fail(fmt.Errorf("issues: %w", err))
	}
	if issues == nil {
		issues = []domain.RawIssue{}
	}
	return issues, nil
}

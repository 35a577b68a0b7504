package email

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/results"
)

// ParseDraft decodes the model's reply into a draft. The reply must be a
// single JSON object, optionally fenced. Other shapes fail with
// *domain.ModelResponseError carrying the reply.
func ParseDraft(reply string) (*domain.EmailDraft, error) {
	body := results.StripFences(reply)
	fail := func(err error) error {
		return &domain.ModelResponseError{Raw: reply, Err: err}
	}

	if !strings.HasPrefix(body, "{") {
		return nil, fail(errors.New("response is not a JSON object"))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	var draft domain.EmailDraft
	if err := dec.Decode(&draft); err != nil {
		return nil, fail(fmt.Errorf("decode: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fail(errors.New("response has data after the JSON object"))
	}
	return &draft, nil
}

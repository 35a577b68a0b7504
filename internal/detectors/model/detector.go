// Package model delegates document analysis to a language model with a
// strict JSON response contract.
package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/detectors/textspan"
	"github.com/custodia-labs/docaudit/internal/logger"
	"github.com/custodia-labs/docaudit/internal/results"
)

// Name is the detector name used in configuration and logs.
const Name = "model"

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 120 * time.Second

// DefaultMaxTokens leaves room for long issue lists.
const DefaultMaxTokens = 8192

// Ensure Detector implements the interface.
var _ driven.Detector = (*Detector)(nil)

// Detector asks a language model for the issue list of a whole document.
type Detector struct {
	llm        driven.LLMService
	prompts    driven.PromptStore
	attachment *driven.Attachment
	timeout    time.Duration
	maxTokens  int
}

// Option configures a Detector.
type Option func(*Detector)

// WithPromptStore loads the instruction from store, falling back to
// DefaultPrompt when the store cannot provide one.
func WithPromptStore(store driven.PromptStore) Option {
	return func(d *Detector) {
		d.prompts = store
	}
}

// WithAttachment sends the original file to providers that accept one.
// Other providers receive the extracted page text instead.
func WithAttachment(raw *domain.RawDocument) Option {
	return func(d *Detector) {
		if raw == nil || len(raw.Content) == 0 {
			return
		}
		mime := raw.MIMEType
		if mime == "" {
			mime = "application/pdf"
		}
		d.attachment = &driven.Attachment{Name: raw.FileName, MIMEType: mime, Data: raw.Content}
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Detector) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithMaxTokens overrides DefaultMaxTokens. Non-positive values are ignored.
func WithMaxTokens(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxTokens = n
		}
	}
}

// New creates a model detector. llm must not be nil.
func New(llm driven.LLMService, opts ...Option) *Detector {
	d := &Detector{
		llm:       llm,
		timeout:   DefaultTimeout,
		maxTokens: DefaultMaxTokens,
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

// Timeout returns the configured deadline.
func (d *Detector) Timeout() time.Duration {
	return d.timeout
}

type reply struct {
	text string
	err  error
}

// Detect sends the document to the model and parses its reply.
//
// The call races a deadline. When it elapses the call's context is
// cancelled and *domain.ModelTimeoutError is returned. A reply that is not
// the expected JSON yields *domain.ModelResponseError with the raw text.
// An empty issues array is a valid, successful result.
func (d *Detector) Detect(ctx context.Context, doc *domain.Document) ([]domain.Issue, error) {
	if d.llm == nil {
		return nil, fmt.Errorf("%w: no model configured", domain.ErrLLMUnavailable)
	}

	prompt := d.prompt()
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := logger.Timed("model call")
	replies := make(chan reply, 1)
	go func() {
		text, err := d.call(callCtx, prompt, doc)
		replies <- reply{text: text, err: err}
	}()

	var r reply
	select {
	case <-callCtx.Done():
		done()
		return nil, d.contextError(ctx, callCtx)
	case r = <-replies:
		done()
	}

	if r.err != nil {
		if callCtx.Err() != nil {
			return nil, d.contextError(ctx, callCtx)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, r.err)
	}

	raws, err := results.ParseModelResult(r.text)
	if err != nil {
		logger.Debug("model reply rejected: %s", textspan.Truncate(r.text, 200))
		return nil, err
	}

	issues := make([]domain.Issue, 0, len(raws))
	for _, raw := range raws {
		issues = append(issues, results.NormaliseIssue(raw))
	}
	if doc != nil {
		issues = results.ClampPages(issues, doc.PageCount())
	}
	logger.Debug("model %s reported %d issues", d.llm.ModelName(), len(issues))
	return issues, nil
}

// contextError distinguishes our own deadline from caller cancellation.
func (d *Detector) contextError(parent, call context.Context) error {
	if parent.Err() != nil && !errors.Is(parent.Err(), context.DeadlineExceeded) {
		return parent.Err()
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return &domain.ModelTimeoutError{Timeout: d.timeout}
	}
	return call.Err()
}

func (d *Detector) call(ctx context.Context, prompt string, doc *domain.Document) (string, error) {
	opts := driven.GenerateOptions{
		MaxTokens:   d.maxTokens,
		Temperature: 0,
		JSON:        true,
	}

	if d.attachment != nil {
		if docLLM, ok := d.llm.(driven.DocumentLLM); ok {
			return docLLM.GenerateWithFile(ctx, prompt, *d.attachment, opts)
		}
	}
	return d.llm.Generate(ctx, prompt+"\n\n"+PageText(doc), opts)
}

func (d *Detector) prompt() string {
	if d.prompts == nil {
		return DefaultPrompt
	}
	p, err := d.prompts.Load(driven.PromptDocumentAnalysis)
	if err != nil || strings.TrimSpace(p) == "" {
		return DefaultPrompt
	}
	return p
}

// PageText renders extracted pages with explicit page markers so the
// model can cite page numbers.
func PageText(doc *domain.Document) string {
	if doc == nil {
		return ""
	}
	var sb strings.Builder
	if doc.FileName != "" {
		fmt.Fprintf(&sb, "File: %s\n", doc.FileName)
	}
	if doc.Approximate {
		sb.WriteString("Page numbers are approximate.\n")
	}
	for i, page := range doc.Pages {
		fmt.Fprintf(&sb, "\n=== Page %d ===\n%s\n", i+1, page)
	}
	return sb.String()
}

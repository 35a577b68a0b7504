// Package tabula extracts page text with layout analysis, keeping reading
// order across columns. The decoder works on files, so the upload is
// spooled to a temporary file for the duration of the call.
package tabula

import (
	"context"
	"fmt"
	"os"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/reader"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/extractors/paging"
	"github.com/custodia-labs/docaudit/internal/logger"
)

// Name is the backend name.
const Name = "tabula"

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Extractor decodes PDFs through tabula.
type Extractor struct {
	excludeHeaders bool
	tempDir        string
}

// Option configures the extractor.
type Option func(*Extractor)

// WithExcludeHeadersAndFooters drops running headers and footers, which
// otherwise repeat on every page and produce duplicate findings.
func WithExcludeHeadersAndFooters(exclude bool) Option {
	return func(e *Extractor) {
		e.excludeHeaders = exclude
	}
}

// WithTempDir sets where uploads are spooled. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(e *Extractor) {
		e.tempDir = dir
	}
}

// New creates a tabula extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the backend name.
func (e *Extractor) Name() string {
	return Name
}

// Extract decodes raw page by page.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	path, cleanup, err := e.spool(raw.Content)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	r, err := reader.Open(path)
	if err != nil {
		return nil, &domain.ExtractionError{Backend: Name, Err: err}
	}
	defer r.Close()

	total, err := r.PageCount()
	if err != nil {
		return nil, &domain.ExtractionError{Backend: Name, Err: err}
	}
	if total == 0 {
		return nil, &domain.ExtractionError{Backend: Name, Err: fmt.Errorf("document has no pages")}
	}

	pages := make([]string, 0, total)
	failed := 0
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, warnings, err := e.extractor(r).Pages(i).Text()
		if err != nil {
			logger.Debug("tabula: page %d: %v", i, err)
			failed++
			text = ""
		}
		if len(warnings) > 0 {
			logger.Debug("tabula: page %d: %d warnings", i, len(warnings))
		}
		pages = append(pages, text)
	}

	if failed == total {
		return nil, &domain.ExtractionError{
			Backend: Name,
			Partial: pages,
			Err:     fmt.Errorf("all %d pages failed to decode", total),
		}
	}

	logger.Debug("tabula: extracted %d pages (%d failed)", total, failed)
	return &domain.Document{
		FileName: raw.FileName,
		Pages:    paging.CleanAll(pages),
		Backend:  Name,
	}, nil
}

func (e *Extractor) extractor(r *reader.Reader) *tabula.Extractor {
	ext := tabula.FromReader(r)
	if e.excludeHeaders {
		ext = ext.ExcludeHeadersAndFooters()
	}
	return ext
}

func (e *Extractor) spool(data []byte) (string, func(), error) {
	f, err := os.CreateTemp(e.tempDir, "docaudit-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

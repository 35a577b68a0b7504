// Package native extracts page text in memory using a pure Go PDF decoder.
package native

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/extractors/paging"
	"github.com/custodia-labs/docaudit/internal/logger"
)

// Name is the backend name.
const Name = "native"

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// errNoPages is returned for documents whose page tree is empty.
var errNoPages = errors.New("document has no pages")

// Extractor decodes PDFs without external tools. Physical pages map
// one-to-one onto Document pages.
type Extractor struct{}

// New creates a native extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the backend name.
func (e *Extractor) Name() string {
	return Name
}

// Extract decodes raw page by page. A page that fails to decode yields
// empty text and is logged; only a document that cannot be opened at all
// is an error.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r, err := openReader(raw.Content)
	if err != nil {
		return nil, &domain.ExtractionError{Backend: Name, Err: err}
	}

	total := r.NumPage()
	if total == 0 {
		return nil, &domain.ExtractionError{Backend: Name, Err: errNoPages}
	}

	pages := make([]string, 0, total)
	failed := 0
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(r, i)
		if err != nil {
			logger.Debug("native: page %d: %v", i, err)
			failed++
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

	logger.Debug("native: extracted %d pages (%d failed)", total, failed)
	return &domain.Document{
		FileName: raw.FileName,
		Pages:    paging.CleanAll(pages),
		Backend:  Name,
	}, nil
}

// openReader recovers from decoder panics on broken trailers.
func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf decoder: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// pageText returns the plain text of 1-indexed page i.
func pageText(r *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("pdf decoder: %v", rec)
		}
	}()

	p := r.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

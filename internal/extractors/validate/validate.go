// Package validate checks uploaded PDF buffers before extraction.
package validate

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// DefaultMaxBytes is the upload bound.
const DefaultMaxBytes = 10 << 20

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// Info describes a structurally valid PDF.
type Info struct {
	PageCount int
	Version   string
	Encrypted bool
}

// Validate rejects empty, oversized and non-PDF buffers.
// maxBytes <= 0 applies DefaultMaxBytes. A buffer without a PDF header
// yields *domain.ExtractionError. A buffer that pdfcpu cannot parse
// yields domain.ErrMalformedStructure so callers can still try the
// page extractors.
func Validate(data []byte, maxBytes int64) (*Info, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrDocumentTooLarge, len(data), maxBytes)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\t\n\r "), pdfMagic) {
		return nil, &domain.ExtractionError{Backend: "validate", Err: fmt.Errorf("missing %s header", pdfMagic)}
	}

	ctx, err := readContext(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedStructure, err)
	}

	info := &Info{PageCount: ctx.PageCount, Encrypted: ctx.Encrypt != nil}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}
	return info, nil
}

// readContext parses the buffer with pdfcpu. pdfcpu panics on some
// malformed cross-reference tables, so panics are converted to errors.
func readContext(data []byte) (ctx *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err = api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx, nil
}

// Ensure Validator implements the interface.
var _ driven.DocumentValidator = Validator{}

// Validator adapts Validate to the driven.DocumentValidator port.
type Validator struct{}

// Validate implements driven.DocumentValidator.
func (Validator) Validate(data []byte, maxBytes int64) (int, error) {
	info, err := Validate(data, maxBytes)
	if err != nil {
		return 0, err
	}
	return info.PageCount, nil
}

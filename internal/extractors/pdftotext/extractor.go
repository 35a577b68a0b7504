// Package pdftotext extracts page text with the poppler pdftotext tool.
// pdftotext separates pages with form feeds, which become page boundaries.
package pdftotext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/extractors/paging"
	"github.com/custodia-labs/docaudit/internal/logger"
)

// Name is the backend name.
const Name = "pdftotext"

const toolName = "pdftotext"

// Ensure Extractor implements the interfaces.
var (
	_ driven.PageExtractor       = (*Extractor)(nil)
	_ driven.AvailabilityChecker = (*Extractor)(nil)
)

// ErrPDFToolNotFound is returned when pdftotext is not on PATH.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor runs pdftotext on a temporary copy of the upload.
type Extractor struct {
	runner    CommandRunner
	pageChars int
	checkPath bool
}

// New creates an extractor backed by the installed pdftotext.
// pageChars is the fallback page size used if the output carries no
// form feeds.
func New(pageChars int) *Extractor {
	return &Extractor{runner: execRunner{}, pageChars: pageChars, checkPath: true}
}

// NewWithRunner creates an extractor with a custom runner, for tests.
func NewWithRunner(runner CommandRunner, pageChars int) *Extractor {
	return &Extractor{runner: runner, pageChars: pageChars}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// CheckAvailable reports whether the extractor can run.
func (e *Extractor) CheckAvailable() error {
	if !e.checkPath {
		return nil
	}
	return CheckAvailable()
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return "pdftotext is part of poppler:\n" +
		"  macOS:  brew install poppler\n" +
		"  Debian: apt install poppler-utils\n" +
		"  Fedora: dnf install poppler-utils"
}

// Name returns the backend name.
func (e *Extractor) Name() string {
	return Name
}

// Extract runs pdftotext and splits its output on form feeds.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := e.CheckAvailable(); err != nil {
		return nil, fmt.Errorf("%w\n%s", err, InstallInstructions())
	}

	tmp, err := os.CreateTemp("", "docaudit-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.ExtractionError{Backend: Name, Err: fmt.Errorf("pdftotext failed: %w", err)}
	}

	pages, approximate := paging.Paginate(paging.Clean(string(out)), e.pageChars)
	logger.Debug("pdftotext: extracted %d pages (approximate=%v)", len(pages), approximate)

	return &domain.Document{
		FileName:    raw.FileName,
		Pages:       pages,
		Approximate: approximate,
		Backend:     Name,
	}, nil
}

package pdftotext

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	args   []string
}

func (m *mockRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	m.args = args
	return m.output, m.err
}

func rawPDF() *domain.RawDocument {
	return &domain.RawDocument{FileName: "doc.pdf", Content: []byte("%PDF-1.4 fake pdf content")}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.PageExtractor = (*Extractor)(nil)
}

func TestNewWithRunner(t *testing.T) {
	runner := &mockRunner{}
	e := NewWithRunner(runner, 3000)
	require.NotNil(t, e)
	assert.Equal(t, runner, e.runner)
	assert.NoError(t, e.CheckAvailable())
}

func TestExtract_FormFeeds(t *testing.T) {
	runner := &mockRunner{output: []byte("Section 1: Intro\fAs stated in Section 5\f")}
	e := NewWithRunner(runner, 3000)

	doc, err := e.Extract(context.Background(), rawPDF())
	require.NoError(t, err)

	assert.Equal(t, []string{"Section 1: Intro", "As stated in Section 5"}, doc.Pages)
	assert.False(t, doc.Approximate)
	assert.Equal(t, "pdftotext", doc.Backend)
	assert.Equal(t, "doc.pdf", doc.FileName)
	assert.Contains(t, runner.args, "-layout")
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
}

func TestExtract_NoFormFeedsFallsBack(t *testing.T) {
	runner := &mockRunner{output: []byte(strings.Repeat("z", 25))}
	e := NewWithRunner(runner, 10)

	doc, err := e.Extract(context.Background(), rawPDF())
	require.NoError(t, err)

	assert.Len(t, doc.Pages, 3)
	assert.True(t, doc.Approximate)
}

func TestExtract_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext crashed")}
	e := NewWithRunner(runner, 3000)

	doc, err := e.Extract(context.Background(), rawPDF())
	assert.Nil(t, doc)
	assert.Contains(t, err.Error(), "pdftotext failed")

	var extractErr *domain.ExtractionError
	assert.True(t, errors.As(err, &extractErr))
}

func TestExtract_Nil(t *testing.T) {
	_, err := NewWithRunner(&mockRunner{}, 0).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

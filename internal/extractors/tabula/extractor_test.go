package tabula

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.PageExtractor = (*Extractor)(nil)
}

func TestNew_Options(t *testing.T) {
	e := New(WithExcludeHeadersAndFooters(true), WithTempDir("/tmp/x"))
	assert.True(t, e.excludeHeaders)
	assert.Equal(t, "/tmp/x", e.tempDir)
	assert.Equal(t, "tabula", e.Name())
}

func TestExtract_Nil(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_GarbageCleansUp(t *testing.T) {
	dir := t.TempDir()
	e := New(WithTempDir(dir))

	_, err := e.Extract(context.Background(), &domain.RawDocument{Content: []byte("garbage")})

	var extractErr *domain.ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "tabula", extractErr.Backend)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed")
}

package extractors

import (
	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/extractors/native"
	"github.com/custodia-labs/docaudit/internal/extractors/pdftotext"
	"github.com/custodia-labs/docaudit/internal/extractors/tabula"
)

// RegisterDefaults registers all built-in extractors with the factory.
// Call this during application initialisation.
func RegisterDefaults(f *Factory) {
	f.Register(domain.ExtractorNative, buildNative)
	f.Register(domain.ExtractorTabula, buildTabula)
	f.Register(domain.ExtractorPdftotext, buildPdftotext)
}

func buildNative(_ domain.AnalysisSettings) (driven.PageExtractor, error) {
	return native.New(), nil
}

func buildTabula(_ domain.AnalysisSettings) (driven.PageExtractor, error) {
	return tabula.New(tabula.WithExcludeHeadersAndFooters(true)), nil
}

// buildPdftotext fails early when the tool is missing so the error
// reaches the user at startup rather than on the first upload.
func buildPdftotext(settings domain.AnalysisSettings) (driven.PageExtractor, error) {
	e := pdftotext.New(settings.PageChars)
	if err := e.CheckAvailable(); err != nil {
		return nil, err
	}
	return e, nil
}

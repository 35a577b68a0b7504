// Command docaudit reviews subscription documents and drafts the
// confirmation emails that raise their issues.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docaudit/internal/adapters/driven/ai"
	"github.com/custodia-labs/docaudit/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docaudit/internal/adapters/driven/screenshot"
	"github.com/custodia-labs/docaudit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docaudit/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docaudit/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docaudit/internal/adapters/driving/cli"
	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/core/services"
	"github.com/custodia-labs/docaudit/internal/detectors"
	"github.com/custodia-labs/docaudit/internal/detectors/patterns"
	"github.com/custodia-labs/docaudit/internal/extractors"
	"github.com/custodia-labs/docaudit/internal/extractors/validate"
	"github.com/custodia-labs/docaudit/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// bootstrap builds the services for one command invocation.
func bootstrap(ctx context.Context, opts cli.GlobalOptions) (*cli.Services, func(), error) {
	dir, err := file.ResolveDir(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving config directory: %w", err)
	}

	config, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening prompt directory: %w", err)
	}

	settingsSvc := services.NewSettingsService(config, ai.NewConfigValidator())
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("reading settings: %w", err)
	}

	var closers []func() error
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("shutdown: %v", err)
			}
		}
	}

	store, closeStore, err := openAnalysisStore(ctx, dir, settings.Storage)
	if err != nil {
		return nil, nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	resolver := ai.NewResolver(settings)
	closers = append(closers, resolver.Close)

	factory := extractors.NewFactory()
	extractors.RegisterDefaults(factory)

	registry := detectors.NewRegistry()
	detectors.RegisterDefaults(registry)

	rules := domain.NewRuleSet(patterns.DefaultRules())

	analysisOpts := []services.AnalysisOption{
		services.WithAnalysisStore(store),
		services.WithValidator(validate.Validator{}),
		services.WithLLMResolver(resolver),
		services.WithPromptStore(prompts),
		services.WithAnalysisSettings(settings.Analysis),
		services.WithDetectorConfig(settingsSvc.GetDetectorConfig()),
		services.WithMinSeverity(settings.Rules.MinSeverity),
	}
	if renderer, err := openScreenshots(dir, settings.Screenshot); err != nil {
		logger.Warn("screenshots disabled: %v", err)
	} else {
		analysisOpts = append(analysisOpts, services.WithScreenshots(renderer))
	}

	emailMethod := domain.ProcessingMethod(domain.ExternalAI{})
	if settings.Analysis.Method == domain.MethodCompanyLLM {
		emailMethod = domain.CompanyLLM{}
	}

	return &cli.Services{
		Analysis: services.NewAnalysisService(factory, registry, rules, analysisOpts...),
		Email:    services.NewEmailService(resolver, emailMethod, services.WithEmailPrompts(prompts)),
		Rules:    services.NewRuleService(rules, config),
		Settings: settingsSvc,
		Prompts:  prompts,
	}, release, nil
}

// openAnalysisStore opens the configured history backend. The returned
// close func is nil for backends without resources.
func openAnalysisStore(ctx context.Context, dir string, cfg domain.StorageSettings) (driven.AnalysisStore, func() error, error) {
	switch cfg.Backend {
	case domain.StorageSQLite, "":
		db, err := sqlite.NewStore(filepath.Join(dir, "data"))
		if err != nil {
			return nil, nil, fmt.Errorf("opening history database: %w", err)
		}
		return db.AnalysisStore(), db.Close, nil
	case domain.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, errors.New("storage backend postgres requires storage.postgres_dsn or DOCAUDIT_PG_DSN")
		}
		pg, err := postgres.NewStore(ctx, cfg.PostgresDSN, cfg.CacheSize)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return pg, pg.Close, nil
	case domain.StorageMemory:
		return memory.NewAnalysisStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, cfg.Backend)
	}
}

func openScreenshots(dir string, cfg domain.ScreenshotSettings) (*screenshot.Renderer, error) {
	if cfg.Backend != domain.ScreenshotS3 && cfg.Dir == "" {
		cfg.Dir = filepath.Join(dir, "screenshots")
	}
	return screenshot.NewFromSettings(cfg)
}

// Package cli provides the docaudit command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
	"github.com/custodia-labs/docaudit/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services wired by the composition root.
var (
	analysisService driving.AnalysisService
	emailService    driving.EmailService
	ruleService     driving.RuleService
	settingsService driving.SettingsService
	promptWatcher   PromptWatcher
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var (
	globalOpts GlobalOptions
	bootstrap  BootstrapFunc
	cleanup    func()
)

// PromptWatcher reloads prompt templates when they change on disk.
type PromptWatcher interface {
	Watch(ctx context.Context) error
}

// Services holds the driving ports the commands use.
type Services struct {
	Analysis driving.AnalysisService
	Email    driving.EmailService
	Rules    driving.RuleService
	Settings driving.SettingsService

	// Prompts is optional; long-running commands watch it for edits.
	Prompts PromptWatcher
}

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	Verbose   bool
	ConfigDir string
}

// BootstrapFunc builds the services once flags are parsed.
// The returned func releases them and may be nil.
type BootstrapFunc func(ctx context.Context, opts GlobalOptions) (*Services, func(), error)

var rootCmd = &cobra.Command{
	Use:   "docaudit",
	Short: "Review subscription documents before they go out",
	Long: `docaudit checks subscription PDFs for typos, broken cross-references,
numbering gaps and missing logic points, and drafts the confirmation email
that raises them with the customer.

Analyses run locally with pattern rules, or through your company model or
an external AI provider. Results are kept in a local history.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Verbose, "verbose", "v", false, "print pipeline progress to stderr")
	rootCmd.PersistentFlags().StringVar(&globalOpts.ConfigDir, "config-dir", "", "configuration directory (default ~/.docaudit)")
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap registers the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs the services directly, bypassing bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	analysisService = s.Analysis
	emailService = s.Email
	ruleService = s.Rules
	settingsService = s.Settings
	promptWatcher = s.Prompts
}

// Execute runs the root command and releases the services afterwards.
func Execute(ctx context.Context) error {
	defer release()
	return rootCmd.ExecuteContext(ctx)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(globalOpts.Verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	services, done, err := bootstrap(ctx, globalOpts)
	if err != nil {
		return err
	}
	if services == nil {
		return errors.New("bootstrap returned no services")
	}
	SetServices(services)
	cleanup = done
	return nil
}

func release() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

// commandContext returns the command's context, or Background when run
// without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the processing method, AI providers, storage and
screenshot options.

Settings live in config.toml inside the config directory. API keys may also
come from the environment (GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY,
DOCAUDIT_COMPANY_LLM_API_KEY) or a .env file next to config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single dot-notation setting, for example:

  docaudit settings set analysis.method external_ai
  docaudit settings set rules.disabled "double-space,teh"

Run 'docaudit settings keys' for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys accepted by 'settings set'",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsMethodCmd = &cobra.Command{
	Use:   "method",
	Short: "Choose the default processing method",
	Long: `Choose how documents are analysed by default.

Available methods:
  local_patterns - rule-based checks only (no setup required)
  company_llm    - the company model endpoint
  external_ai    - an external AI provider (requires 'docaudit settings llm')
  manual_only    - no automatic checks`,
	RunE: runSettingsMethod,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the external AI provider",
	Long:  `Configure the provider used by the external_ai method and by email drafting.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsMethodCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Analysis settings
	cmd.Println("[Analysis]")
	cmd.Printf("  Method: %s\n", settings.Analysis.Method)
	cmd.Printf("  Extractor: %s\n", settings.Analysis.Extractor)
	cmd.Printf("  Model timeout: %ds\n", settings.Analysis.ModelTimeoutSeconds)
	cmd.Printf("  Max upload: %d bytes\n", settings.Analysis.MaxUploadBytes)
	cmd.Printf("  Screenshots: %s\n", yesNo(settings.Analysis.Screenshots))
	cmd.Printf("  Deduplicate: %s\n", yesNo(settings.Analysis.Deduplicate))
	cmd.Printf("  Include rules with external AI: %s\n", yesNo(settings.Analysis.IncludeRules))
	cmd.Println()

	// LLM settings
	printLLMSettings(cmd, "External AI", settings.LLM)
	printLLMSettings(cmd, "Company LLM", settings.CompanyLLM)

	// Storage settings
	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	if settings.Storage.Backend == domain.StoragePostgres {
		if settings.Storage.PostgresDSN != "" {
			cmd.Printf("  DSN: %s\n", maskAPIKey(settings.Storage.PostgresDSN))
		} else {
			cmd.Printf("  DSN: (not set)\n")
		}
		cmd.Printf("  Cache size: %d\n", settings.Storage.CacheSize)
	}
	cmd.Println()

	// Screenshot settings
	cmd.Println("[Screenshots]")
	cmd.Printf("  Backend: %s\n", settings.Screenshot.Backend)
	if settings.Screenshot.Backend == domain.ScreenshotS3 {
		cmd.Printf("  Endpoint: %s\n", settings.Screenshot.S3.Endpoint)
		cmd.Printf("  Bucket: %s\n", settings.Screenshot.S3.Bucket)
	} else if settings.Screenshot.Dir != "" {
		cmd.Printf("  Directory: %s\n", settings.Screenshot.Dir)
	}
	cmd.Println()

	// Rule settings
	cmd.Println("[Rules]")
	cmd.Printf("  Minimum severity: %s\n", settings.Rules.MinSeverity)
	if len(settings.Rules.Disabled) > 0 {
		cmd.Printf("  Disabled: %s\n", strings.Join(settings.Rules.Disabled, ", "))
	} else {
		cmd.Printf("  Disabled: (none)\n")
	}
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docaudit settings llm' or 'docaudit settings set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printLLMSettings(cmd *cobra.Command, title string, llm domain.LLMSettings) {
	cmd.Printf("[%s]\n", title)
	cmd.Printf("  Provider: %s\n", llm.Provider.Description())
	cmd.Printf("  Model: %s\n", llm.Model)
	if llm.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", llm.BaseURL)
	}
	if llm.Provider.RequiresAPIKey() {
		if llm.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(llm.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !llm.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if isSecretKey(key) {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsMethod(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select Processing Method")
	cmd.Println("------------------------")
	methods := domain.AllProcessingMethods()
	for i, m := range methods {
		cmd.Printf("  %d. %s\n", i+1, m)
	}
	cmd.Print("\nEnter choice: ")
	input := readLine(reader)
	idx := parseChoice(input, len(methods), 0)
	if idx == 0 {
		return errors.New("invalid selection")
	}

	selected := methods[idx-1]
	if err := settingsService.SetMethod(selected); err != nil {
		return fmt.Errorf("failed to set processing method: %w", err)
	}
	cmd.Printf("Processing method set to: %s\n", selected)

	// Check if additional configuration is needed
	if settingsService.RequiresLLM() {
		if err := settingsService.Validate(); err != nil {
			cmd.Printf("\nNote: %v\n", err)
			cmd.Println("Run 'docaudit settings llm' to configure.")
		}
	}

	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, otherwise a plain line.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "secret_key") ||
		strings.HasSuffix(key, "access_key") || strings.HasSuffix(key, "postgres_dsn")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

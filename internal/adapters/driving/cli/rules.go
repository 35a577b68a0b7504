package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

var rulesJSON bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage pattern rules",
	Long: `List the rule-based checks used by local_patterns (and by external_ai
with --include-rules) and switch individual rules on or off.

Changes are saved to rules.disabled in the settings.`,
	RunE: runRulesList,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable <rule-id>...",
	Short: "Enable rules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRules(cmd, args, true)
	},
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable <rule-id>...",
	Short: "Disable rules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRules(cmd, args, false)
	},
}

func init() {
	rulesListCmd.Flags().BoolVar(&rulesJSON, "json", false, "output rules as JSON")
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesEnableCmd)
	rulesCmd.AddCommand(rulesDisableCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	if ruleService == nil {
		return errors.New("rule service not configured")
	}

	rules := ruleService.List()

	if rulesJSON {
		type ruleJSON struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Type     string `json:"type"`
			Severity string `json:"severity"`
			Pattern  string `json:"pattern"`
			Enabled  bool   `json:"enabled"`
		}
		out := make([]ruleJSON, len(rules))
		for i, r := range rules {
			out[i] = ruleJSON{
				ID: r.ID, Name: r.Name, Type: r.Type.String(),
				Severity: string(r.Severity), Pattern: r.Pattern, Enabled: r.Enabled,
			}
		}
		return outputJSON(cmd, out)
	}

	if len(rules) == 0 {
		cmd.Println("No rules defined.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	enabled := 0
	for _, r := range rules {
		state := st.Success.Render("on ")
		if !r.Enabled {
			state = st.Muted.Render("off")
		} else {
			enabled++
		}
		cmd.Printf("%s  %-28s %-15s %s  %s\n",
			state, r.ID, r.Type, st.Severity(r.Severity).Render(fmt.Sprintf("%-6s", r.Severity)), r.Name)
	}
	cmd.Println()
	cmd.Printf("%d of %d rules enabled\n", enabled, len(rules))
	return nil
}

func toggleRules(cmd *cobra.Command, ids []string, enable bool) error {
	if ruleService == nil {
		return errors.New("rule service not configured")
	}

	action, apply := "Disabled", ruleService.Disable
	if enable {
		action, apply = "Enabled", ruleService.Enable
	}

	for _, id := range ids {
		if err := apply(id); err != nil {
			if errors.Is(err, domain.ErrRuleNotFound) {
				return fmt.Errorf("unknown rule %q (see 'docaudit rules list')", id)
			}
			return fmt.Errorf("failed to update rule %s: %w", id, err)
		}
		cmd.Printf("%s %s\n", action, id)
	}
	return nil
}

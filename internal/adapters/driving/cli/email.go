package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

const respondByLayout = "2006-01-02"

var (
	emailCustomer  string
	emailAddress   string
	emailCompany   string
	emailFunds     []string
	emailRespondBy string
	emailSender    string
	emailJSON      bool
	emailHTML      bool
)

var emailCmd = &cobra.Command{
	Use:   "email <analysis-id|result.json>",
	Short: "Draft the confirmation email for an analysis",
	Long: `Drafts the email that raises an analysis' issues with the customer.

The issues come from a saved analysis (see 'docaudit history list') or from a
result file written by 'docaudit analyze --json' or '--output'. Typo issues are
listed separately in the email.

Funds are given as NAME or NAME:CODE and the flag may be repeated:
  docaudit email 3f2a... --customer "Jane Doe" --fund "Growth Fund II:GF2" --respond-by 2026-11-02

The draft is checked before it is printed: every question needs evidence with
a page reference, and the tone is checked against house terminology.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmail,
}

func init() {
	emailCmd.Flags().StringVar(&emailCustomer, "customer", "", "customer name (required)")
	emailCmd.Flags().StringVar(&emailAddress, "email", "", "customer email address")
	emailCmd.Flags().StringVar(&emailCompany, "company", "", "customer company")
	emailCmd.Flags().StringArrayVar(&emailFunds, "fund", nil, "fund as NAME or NAME:CODE (repeatable)")
	emailCmd.Flags().StringVar(&emailRespondBy, "respond-by", "", "reply deadline as YYYY-MM-DD (required)")
	emailCmd.Flags().StringVar(&emailSender, "sender", "", "name used in the signature")
	emailCmd.Flags().BoolVar(&emailJSON, "json", false, "output the generated email as JSON")
	emailCmd.Flags().BoolVar(&emailHTML, "html", false, "print the HTML body instead of plain text")
	rootCmd.AddCommand(emailCmd)
}

func runEmail(cmd *cobra.Command, args []string) error {
	if emailService == nil {
		return errors.New("email service not configured")
	}
	if strings.TrimSpace(emailCustomer) == "" {
		return errors.New("--customer is required")
	}
	respondBy, err := time.Parse(respondByLayout, strings.TrimSpace(emailRespondBy))
	if err != nil {
		return fmt.Errorf("--respond-by must be YYYY-MM-DD: %w", err)
	}

	ctx := commandContext(cmd)
	issues, err := loadIssues(cmd, args[0])
	if err != nil {
		return err
	}

	generated, err := emailService.Compose(ctx, &domain.EmailInputs{
		Customer: domain.Customer{
			Name:    emailCustomer,
			Email:   emailAddress,
			Company: emailCompany,
		},
		Funds:      parseFunds(emailFunds),
		Issues:     issues,
		RespondBy:  respondBy,
		SenderName: emailSender,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("the drafted email was rejected: %w", err)
		}
		return fmt.Errorf("email drafting failed: %w", err)
	}

	if emailJSON {
		return outputJSON(cmd, generated)
	}
	printEmail(cmd, generated)
	return nil
}

// loadIssues reads issues from a result file when ref names one,
// otherwise from the saved analysis with that ID.
func loadIssues(cmd *cobra.Command, ref string) ([]domain.Issue, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", ref, err)
		}
		var result domain.AnalysisResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("%s is not an analysis result: %w", ref, err)
		}
		return result.Issues(), nil
	}

	if analysisService == nil {
		return nil, errors.New("analysis service not configured")
	}
	record, err := analysisService.Get(commandContext(cmd), ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no analysis or result file named %q", ref)
		}
		return nil, fmt.Errorf("loading analysis: %w", err)
	}
	if record.Result == nil {
		return nil, nil
	}
	return record.Result.Issues(), nil
}

// parseFunds turns NAME[:CODE] values into funds, skipping blanks.
func parseFunds(values []string) []domain.Fund {
	funds := make([]domain.Fund, 0, len(values))
	for _, v := range values {
		name, code, _ := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		funds = append(funds, domain.Fund{Name: name, Code: strings.TrimSpace(code)})
	}
	return funds
}

func printEmail(cmd *cobra.Command, generated *domain.GeneratedEmail) {
	st := stylesFor(cmd.OutOrStdout())

	cmd.Println(st.Title.Render("Subject: " + generated.Subject))
	cmd.Println()
	if emailHTML {
		cmd.Println(generated.BodyHTML)
	} else {
		cmd.Println(generated.BodyText)
	}
	cmd.Println()

	cmd.Printf("Tone check: %s\n", st.Check(generated.ToneCheckPassed))
	cmd.Printf("References check: %s\n", st.Check(generated.ReferencesCheckPassed))
	for _, f := range generated.Flags {
		style := st.Warning
		if f.Type == domain.FlagError {
			style = st.Error
		}
		cmd.Printf("  %s %s\n", style.Render("["+string(f.Type)+"]"), f.Message)
	}
}

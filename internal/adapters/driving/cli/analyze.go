package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driving"
)

var (
	analyzeMethod       string
	analyzeProvider     string
	analyzeModel        string
	analyzeIncludeRules bool
	analyzeJSON         bool
	analyzeScreenshots  bool
	analyzeDedupe       bool
	analyzeNoSave       bool
	analyzeOutput       string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.pdf>",
	Short: "Analyse a subscription document",
	Long: `Extracts the text of each page and runs the detectors selected by the
processing method:

  local_patterns - rule-based checks only, nothing leaves this machine
  company_llm    - the company model endpoint
  external_ai    - an external AI provider (add --include-rules for both)
  manual_only    - no automatic checks, the document is kept for review

The method defaults to analysis.method in the settings. Use "-" to read the
PDF from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeMethod, "method", "m", "", "processing method (default from settings)")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "", "external AI provider override")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "model override")
	analyzeCmd.Flags().BoolVar(&analyzeIncludeRules, "include-rules", false, "also run the rule detectors with external_ai")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeScreenshots, "screenshots", false, "capture a screenshot of each affected page")
	analyzeCmd.Flags().BoolVar(&analyzeDedupe, "dedupe", false, "collapse identical issues")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not keep the analysis in history")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "also write the result JSON to this file")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	data, fileName, err := readPDF(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	method, err := methodFromFlags(analyzeMethod, analyzeProvider, analyzeModel, analyzeIncludeRules)
	if err != nil {
		return err
	}

	resp, err := analysisService.Analyze(commandContext(cmd), driving.AnalyzeRequest{
		FileName:    fileName,
		Data:        data,
		Method:      method,
		Screenshots: analyzeScreenshots,
		Deduplicate: analyzeDedupe,
		NoSave:      analyzeNoSave,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeOutput != "" {
		if err := writeResultFile(analyzeOutput, resp.Result); err != nil {
			return err
		}
	}

	if analyzeJSON {
		return outputJSON(cmd, resp.Result)
	}
	printAnalysis(cmd, resp)
	return nil
}

// readPDF reads the document at path, or standard input for "-".
func readPDF(stdin io.Reader, path string) ([]byte, string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading standard input: %w", err)
		}
		return data, "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	return data, filepath.Base(path), nil
}

// methodFromFlags maps the method flags to a processing method.
// An empty name returns nil so the configured method applies.
func methodFromFlags(name, provider, model string, includeRules bool) (domain.ProcessingMethod, error) {
	if strings.TrimSpace(name) == "" {
		if provider != "" || model != "" || includeRules {
			return nil, errors.New("--provider, --model and --include-rules need --method")
		}
		return nil, nil
	}
	return domain.BuildProcessingMethod(name, domain.MethodOverrides{
		Provider:     provider,
		Model:        model,
		IncludeRules: includeRules,
	})
}

func writeResultFile(path string, result *domain.AnalysisResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printAnalysis(cmd *cobra.Command, resp *driving.AnalyzeResponse) {
	st := stylesFor(cmd.OutOrStdout())
	result := resp.Result
	pages := result.Summary().Pages()

	header := fmt.Sprintf("%s: %d issue(s) on %d page(s)", result.FileName, result.Len(), len(pages))
	cmd.Println(st.Title.Render(header))
	meta := fmt.Sprintf("%d page(s) extracted", resp.PageCount)
	if resp.Record != nil {
		meta = fmt.Sprintf("method %s, %s", resp.Record.Method, meta)
	}
	if resp.Approximate {
		meta += ", page numbers are approximate"
	}
	cmd.Println(st.Muted.Render(meta))
	cmd.Println()

	printIssues(cmd, st, result.Issues())

	if len(resp.Warnings) > 0 {
		cmd.Println(st.Warning.Render("Warnings:"))
		for _, w := range resp.Warnings {
			cmd.Printf("  - %s\n", w)
		}
		cmd.Println()
	}

	switch {
	case resp.Saved && resp.Record != nil:
		cmd.Println(st.Muted.Render("Saved as " + resp.Record.ID))
	case resp.SaveError != nil:
		cmd.Println(st.Warning.Render("Not saved: " + resp.SaveError.Error()))
	}
}

// printIssues lists issues grouped by page, in emission order within a page.
func printIssues(cmd *cobra.Command, st *Styles, issues []domain.Issue) {
	if len(issues) == 0 {
		cmd.Println(st.Success.Render("No issues found."))
		cmd.Println()
		return
	}

	byPage := make(map[int][]domain.Issue)
	var order []int
	for _, issue := range issues {
		if _, ok := byPage[issue.Page]; !ok {
			order = append(order, issue.Page)
		}
		byPage[issue.Page] = append(byPage[issue.Page], issue)
	}
	sort.Ints(order)

	for _, page := range order {
		cmd.Println(st.Subtitle.Render(fmt.Sprintf("Page %d", page)))
		for _, issue := range byPage[page] {
			tag := st.IssueType(issue.Type).Render("[" + issue.Type.String() + "]")
			cmd.Printf("  %s %s\n", tag, issue.Message)
			switch {
			case issue.Original != "" && issue.Suggestion != "":
				cmd.Printf("      %q -> %q\n", issue.Original, issue.Suggestion)
			case issue.Original != "":
				cmd.Printf("      %q\n", issue.Original)
			case issue.Suggestion != "":
				cmd.Printf("      suggestion: %s\n", issue.Suggestion)
			}
			if issue.LocationHint != "" {
				cmd.Println("      " + st.Muted.Render("at "+issue.LocationHint))
			}
			if issue.ScreenshotURL != "" {
				cmd.Println("      " + st.Muted.Render("screenshot: "+issue.ScreenshotURL))
			}
		}
		cmd.Println()
	}
}

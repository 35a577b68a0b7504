package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved analyses",
	Long:  `List and inspect analyses kept in the local history.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved analyses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show the issues of a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of analyses (0 = all)")
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	summaries, err := analysisService.List(commandContext(cmd), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}

	if historyJSON {
		type summaryJSON struct {
			ID         string    `json:"id"`
			FileName   string    `json:"fileName"`
			Method     string    `json:"method"`
			IssueCount int       `json:"issueCount"`
			CreatedAt  time.Time `json:"createdAt"`
		}
		out := make([]summaryJSON, len(summaries))
		for i, s := range summaries {
			out[i] = summaryJSON(s)
		}
		return outputJSON(cmd, out)
	}

	if len(summaries) == 0 {
		cmd.Println("No saved analyses.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	for _, s := range summaries {
		cmd.Printf("%s  %s  %-14s %3d issue(s)  %s\n",
			st.Muted.Render(s.CreatedAt.Local().Format("2006-01-02 15:04")),
			s.ID, s.Method, s.IssueCount, s.FileName)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	record, err := analysisService.Get(commandContext(cmd), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("analysis %s not found", args[0])
		}
		return fmt.Errorf("failed to load analysis: %w", err)
	}
	result := record.Result
	if result == nil {
		result = domain.NewAnalysisResult(record.FileName, nil)
	}

	if historyJSON {
		return outputJSON(cmd, result)
	}

	st := stylesFor(cmd.OutOrStdout())
	header := fmt.Sprintf("%s: %d issue(s) on %d page(s)", record.FileName, result.Len(), len(result.Summary().PagesAffected))
	cmd.Println(st.Title.Render(header))
	cmd.Println(st.Muted.Render(fmt.Sprintf("%s, method %s, %s",
		record.ID, record.Method, record.CreatedAt.Local().Format("2006-01-02 15:04"))))
	cmd.Println()
	printIssues(cmd, st, result.Issues())
	return nil
}

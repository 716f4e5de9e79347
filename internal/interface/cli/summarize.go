package cli

import (
	"fmt"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/summarization"
	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [class-id session-id]",
	Short: "Generate summaries and insights",
	Long: `Generate the summary and insights of one session, or of every session
that does not have a summary yet.

Examples:
  lectern summarize biology-101-a1b2c3 f3a9c1d2      Re-summarize one session
  lectern summarize --pending                        Summarize up to --limit pending sessions
  lectern summarize --pending --all                  Keep going until nothing is pending
  lectern summarize --status                         Show how many sessions are pending`,
	RunE: runSummarize,
}

var (
	summarizeStatus  bool
	summarizePending bool
	summarizeAll     bool
	summarizeLimit   int
)

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().BoolVar(&summarizeStatus, "status", false, "Show summarization statistics")
	summarizeCmd.Flags().BoolVar(&summarizePending, "pending", false, "Summarize sessions without a summary")
	summarizeCmd.Flags().BoolVar(&summarizeAll, "all", false, "With --pending, repeat batches until none are left")
	summarizeCmd.Flags().IntVar(&summarizeLimit, "limit", 10, "Sessions per batch")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case summarizeStatus:
		stats, err := a.db.GetStats()
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		fmt.Printf("Summarized: %d / %d sessions\n", stats.Summarized, stats.TotalSessions)
		fmt.Printf("Pending:    %d\n", stats.Pending)
		return nil

	case summarizePending:
		return summarizePendingSessions(cmd, a)
	}

	if len(args) != 2 {
		return errs.Validationf("summarize", "usage: lectern summarize <class-id> <session-id> (or --pending)")
	}
	sp := newSpinner(fmt.Sprintf("Summarizing %s/%s...", args[0], args[1]))
	sp.Start()
	summary, err := a.agent.SummarizeSession(cmd.Context(), args[0], args[1])
	sp.Stop()
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n", summary)
	return nil
}

func summarizePendingSessions(cmd *cobra.Command, a *app) error {
	worker := summarization.NewWorker(a.db, a.agent.Generator(), summarizeLimit)

	var total, totalFailed int
	for {
		ok, failed, err := worker.ProcessPending(cmd.Context())
		total += ok
		totalFailed += failed
		if err != nil {
			return err
		}
		fmt.Printf("  batch: %d summarized, %d failed\n", ok, failed)
		// A batch with failures would fetch the same sessions again
		if !summarizeAll || ok == 0 || failed > 0 {
			break
		}
	}

	fmt.Printf("%s %d session(s) summarized", okStyle.Render("✓"), total)
	if totalFailed > 0 {
		fmt.Printf(", %s", errorStyle.Render(fmt.Sprintf("%d failed", totalFailed)))
	}
	fmt.Println()
	return nil
}

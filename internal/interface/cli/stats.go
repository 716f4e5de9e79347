package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long: `Display totals across all classes: classes, sessions, summaries still
pending, stored transcript size and the date range covered.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.db.GetStats()
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Println(titleStyle.Render("Database Statistics"))
	fmt.Println()
	fmt.Printf("Classes:           %d\n", stats.TotalClasses)
	fmt.Printf("Sessions:          %d\n", stats.TotalSessions)
	fmt.Printf("Summarized:        %d\n", stats.Summarized)
	fmt.Printf("Pending summary:   %d\n", stats.Pending)
	fmt.Printf("Transcript text:   %s\n", humanize.Bytes(uint64(stats.ContentBytes)))

	if stats.TotalSessions > 0 {
		fmt.Println()
		fmt.Printf("Oldest session:    %s (%s)\n", stats.OldestSession.Format("2006-01-02"), humanize.Time(stats.OldestSession))
		fmt.Printf("Newest session:    %s (%s)\n", stats.NewestSession.Format("2006-01-02"), humanize.Time(stats.NewestSession))
		if stats.BusiestClass != "" {
			fmt.Printf("Busiest class:     %s (%s)\n", stats.BusiestClass, pluralize(stats.BusiestClassCount, "session"))
		}
	}

	fmt.Println()
	fmt.Println(metaStyle.Render("Database: " + a.cfg.DBPath()))
	return nil
}

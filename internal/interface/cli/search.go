package cli

import (
	"fmt"
	"strings"

	"github.com/neilberkman/lectern/internal/core/search"
	"github.com/spf13/cobra"
)

var (
	searchClass string
	searchSince string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find sessions by keyword",
	Long: `Search session titles, transcripts and summaries.

Every word must appear somewhere in the session, ignoring case. Quote the
query to match it as one phrase. Results are newest first.

Examples:
  lectern search krebs cycle
  lectern search '"electron transport"' --class biology-101-a1b2c3
  lectern search midterm --since "last month"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchClass, "class", "", "Only search this class")
	searchCmd.Flags().StringVar(&searchSince, "since", "", "Only sessions after this date")
	searchCmd.Flags().IntVar(&searchLimit, "limit", search.DefaultLimit, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	f := search.Filters{
		Query:   strings.Join(args, " "),
		ClassID: searchClass,
		Limit:   searchLimit,
	}
	if searchSince != "" {
		if f.Since, err = parseDate(searchSince); err != nil {
			return err
		}
	}

	results, err := search.Search(a.db, f)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No sessions match %q\n", f.Query)
		return nil
	}

	for _, r := range results {
		fmt.Printf("%s  %s\n", headingStyle.Render(r.Title), idStyle.Render(r.ClassID+" "+r.SessionID))
		fmt.Println(metaStyle.Render(fmt.Sprintf("    %s · %s", r.ClassName, formatTimestamp(r.CreatedAt))))
		fmt.Printf("    %s\n\n", truncate(r.Snippet, 160))
	}
	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/importer"
	"github.com/spf13/cobra"
)

var importSummarize bool

var importCmd = &cobra.Command{
	Use:   "import <class-id> <dir>",
	Short: "Import every lecture file in a directory",
	Long: `Import all recordings and documents under a directory into a class.

Files already imported into the class (same content hash) are skipped, so the
command can be re-run after adding new files or after failures.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importSummarize, "summarize", false, "Summarize each session as it is imported")
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if class, err := a.db.GetClass(args[0]); err != nil {
		return err
	} else if class == nil {
		return errs.E(errs.NotFound, "import", errs.ErrClassNotFound, args[0])
	}

	imp := importer.New(a.db, a.agent, importSummarize)
	res, err := imp.ImportDirectory(cmd.Context(), args[0], args[1], importer.NewProgressReporter(os.Stdout))
	if err != nil {
		return err
	}
	for path, ferr := range res.Errors {
		fmt.Fprintf(os.Stderr, "  %s %s: %v\n", errorStyle.Render("✗"), path, ferr)
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to import", res.Failed)
	}
	return nil
}

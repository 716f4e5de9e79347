package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/spf13/cobra"
)

var (
	configDir   string
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), describe(err))
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lecture transcripts, summaries and Q&A",
	Long: `lectern - keep class lectures searchable and answerable

Transcribe recordings, extract documents, summarize every session and ask
questions grounded in what was actually said in class.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Config directory (default ~/.config/lectern)")
}

// describe adds a hint for the error kinds a user can act on
func describe(err error) string {
	var e *errs.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case errs.Config:
		return err.Error() + "\n  Set the API key in your environment or in ~/.config/lectern/.env"
	case errs.NothingToSearch:
		return err.Error() + "\n  Add a session first: lectern add <class-id> --file notes.txt"
	case errs.PartialFailure:
		return err.Error() + "\n  The session was saved; retry with: lectern summarize --pending"
	}
	return err.Error()
}

func exitCode(err error) int {
	switch errs.KindOf(err) {
	case errs.Validation:
		return 2
	case errs.NotFound:
		return 3
	case errs.Config:
		return 4
	}
	return 1
}

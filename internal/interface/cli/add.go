package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/neilberkman/lectern/internal/core/agent"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/spf13/cobra"
)

var (
	addTitle     string
	addFile      string
	addSummarize bool
	addLanguage  string
)

var addCmd = &cobra.Command{
	Use:   "add <class-id>",
	Short: "Add a text session to a class",
	Long: `Add a session from plain text. The text comes from --file, or stdin
when --file is not given.

Examples:
  lectern add biology-101-a1b2c3 --file notes.txt --title "Week 3"
  pbpaste | lectern add biology-101-a1b2c3 --summarize`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <class-id> <file>",
	Short: "Transcribe or extract a lecture file into a class",
	Long: `Ingest a recording (wav, mp3, flac, ogg, m4a, mp4, avi, mov, mkv, webm,
flv) or a document (pdf, docx, txt, md). Recordings are transcribed with the
ASR backend selected by the asr_mode setting, in the language given by
--language (default: the config file's language, or auto-detect).`,
	Args: cobra.ExactArgs(2),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(addCmd, ingestCmd)

	addCmd.Flags().StringVar(&addTitle, "title", "", "Session title")
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "Read content from file instead of stdin")
	addCmd.Flags().BoolVar(&addSummarize, "summarize", false, "Generate summary and insights right away")

	ingestCmd.Flags().StringVar(&addTitle, "title", "", "Session title (default: from file name)")
	ingestCmd.Flags().BoolVar(&addSummarize, "summarize", true, "Generate summary and insights right away")
	ingestCmd.Flags().StringVar(&addLanguage, "language", "", "Spoken language of a recording, e.g. en or es")
}

func runAdd(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if addFile != "" {
		data, err = os.ReadFile(addFile)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sp := newSpinner("Saving session...")
	if addSummarize {
		sp = newSpinner("Saving and summarizing...")
	}
	sp.Start()
	res, err := a.agent.AddSession(cmd.Context(), args[0], addTitle, string(data), nil, addSummarize)
	sp.Stop()
	return reportAdd(res, err)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sp := newSpinner("Processing " + filepath.Base(args[1]) + "...")
	sp.Start()
	res, err := a.agent.Ingest(cmd.Context(), args[0], args[1], addTitle, addLanguage, addSummarize)
	sp.Stop()
	return reportAdd(res, err)
}

// reportAdd prints the stored session even when summarizing it failed
func reportAdd(res *agent.AddResult, err error) error {
	if res == nil {
		return err
	}
	s := res.Session
	fmt.Printf("%s %s  %s\n", okStyle.Render("Added"), headingStyle.Render(s.Title), idStyle.Render(s.SessionID))
	if res.Summary != "" {
		fmt.Printf("\n%s\n", res.Summary)
	}
	if errs.Is(err, errs.PartialFailure) {
		return err
	}
	return nil
}

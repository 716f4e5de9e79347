package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neilberkman/lectern/internal/core/summarization"
	"github.com/neilberkman/lectern/internal/interface/api"
	"github.com/spf13/cobra"
)

var (
	serveAddr        string
	serveNoSummarize bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API used by the web front end.

Sessions without a summary are swept in the background on the
summarize_schedule from config.toml (default every five minutes).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: http_addr from config, 127.0.0.1:8000)")
	serveCmd.Flags().BoolVar(&serveNoSummarize, "no-summarize", false, "Disable the background summary sweep")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.HTTPAddr
	}
	uploads := filepath.Join(a.cfg.DataDir, "uploads")
	if err := os.MkdirAll(uploads, 0755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	workerDone := make(chan error, 1)
	if serveNoSummarize {
		workerDone <- nil
	} else {
		worker := summarization.NewWorker(a.db, a.agent.Generator(), 0)
		go func() { workerDone <- worker.Start(ctx, a.cfg.SummarizeSchedule) }()
	}

	srv := api.New(api.Deps{
		DB:          a.db,
		Agent:       a.agent,
		Settings:    a.settings,
		UploadDir:   uploads,
		MaxUploadMB: a.cfg.MaxUploadMB,
	})
	fmt.Printf("Serving on http://%s\n", addr)
	err = srv.Listen(ctx, addr)
	cancel()
	if werr := <-workerDone; werr != nil && err == nil {
		err = werr
	}
	return err
}

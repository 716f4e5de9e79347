package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/neilberkman/lectern/internal/core/daemon"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/importer"
	"github.com/neilberkman/lectern/internal/core/summarization"
	"github.com/spf13/cobra"
)

var (
	watchBackground bool
	watchSummarize  bool
	watchSettle     time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <class-id> <dir>",
	Short: "Ingest lecture files dropped into a folder",
	Long: `Watch a folder and ingest every new recording or document into a class.

Files already in the folder are imported first. New files are ingested once
they stop changing for --settle. Pending summaries are swept on the
summarize_schedule from config.toml.

Examples:
  lectern watch biology-101-a1b2c3 ~/Lectures/Biology
  lectern watch biology-101-a1b2c3 ~/Lectures/Biology --background
  lectern watch status
  lectern watch stop`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

var watchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the background watcher",
	Args:  cobra.NoArgs,
	RunE:  runWatchStatus,
}

var watchStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background watcher",
	Args:  cobra.NoArgs,
	RunE:  runWatchStop,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.AddCommand(watchStatusCmd, watchStopCmd)

	watchCmd.Flags().BoolVar(&watchBackground, "background", false, "Detach and run in the background")
	watchCmd.Flags().BoolVar(&watchSummarize, "summarize", true, "Summarize each file after ingesting it")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", daemon.DefaultSettle, "How long a file must stop changing before it is ingested")
}

func runWatch(cmd *cobra.Command, args []string) error {
	classID := args[0]
	dir, err := filepath.Abs(args[1])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if class, err := a.db.GetClass(classID); err != nil {
		return err
	} else if class == nil {
		return errs.E(errs.NotFound, "watch", errs.ErrClassNotFound, classID)
	}

	if watchBackground {
		return startBackgroundWatch(a, classID, dir)
	}

	imp := importer.New(a.db, a.agent, watchSummarize)
	w, err := daemon.NewWatcher(imp, classID, dir, watchSettle)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	worker := summarization.NewWorker(a.db, a.agent.Generator(), 0)
	workerDone := make(chan error, 1)
	go func() { workerDone <- worker.Start(ctx, a.cfg.SummarizeSchedule) }()

	fmt.Printf("Watching %s for %s (Ctrl-C to stop)\n", dir, idStyle.Render(classID))
	err = w.Start(ctx)
	cancel()
	if werr := <-workerDone; werr != nil && err == nil {
		err = werr
	}

	stats := w.Stats()
	fmt.Printf("\n%d imported, %d skipped, %d failed in %s\n",
		stats.Imported, stats.Skipped, stats.Failed, daemon.FormatUptime(time.Since(stats.StartTime)))
	return err
}

func startBackgroundWatch(a *app, classID, dir string) error {
	proc, err := daemon.NewProcess(a.cfg.StateDir())
	if err != nil {
		return err
	}

	args := []string{"watch", classID, dir,
		"--summarize=" + strconv.FormatBool(watchSummarize),
		"--settle", watchSettle.String(),
	}
	if configDir != "" {
		args = append(args, "--config", configDir)
	}

	pid, err := proc.Start(classID, dir, args)
	if err != nil {
		return err
	}
	fmt.Printf("%s watcher started (PID %d)\n", okStyle.Render("✓"), pid)
	fmt.Println(metaStyle.Render("  Log: " + proc.LogFile()))
	return nil
}

func openProcess() (*daemon.Process, error) {
	a, err := openApp()
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return daemon.NewProcess(a.cfg.StateDir())
}

func runWatchStatus(cmd *cobra.Command, args []string) error {
	proc, err := openProcess()
	if err != nil {
		return err
	}
	info, err := proc.Status()
	if err != nil {
		return err
	}
	if !info.IsRunning {
		fmt.Println("Watcher: not running")
		return nil
	}

	fmt.Printf("Watcher: %s\n", okStyle.Render("running"))
	fmt.Printf("  PID:    %d\n", info.PID)
	fmt.Printf("  Class:  %s\n", info.ClassID)
	fmt.Printf("  Folder: %s\n", info.Dir)
	if !info.StartTime.IsZero() {
		fmt.Printf("  Uptime: %s\n", daemon.FormatUptime(time.Since(info.StartTime)))
	}
	fmt.Printf("  Log:    %s\n", proc.LogFile())
	return nil
}

func runWatchStop(cmd *cobra.Command, args []string) error {
	proc, err := openProcess()
	if err != nil {
		return err
	}
	if err := proc.Stop(); err != nil {
		return err
	}
	fmt.Printf("%s watcher stopped\n", okStyle.Render("✓"))
	return nil
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ipqc-tracker/internal/async"
	"github.com/joseph-ayodele/ipqc-tracker/internal/ingest"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Process checklist PDFs and text files as they land in the given directories",
	Long: `Watch one or more directories and process each PDF or .txt checklist
once the scanner has finished writing it. Subdirectories are not watched.
Runs until interrupted; queued checklists finish before exit.`,
	Example: `  ipqc watch /srv/scans/line1 /srv/scans/line2 --export`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("initial-scan", true, "process checklists already present")
	watchCmd.Flags().Duration("debounce", 2*time.Second, "quiet period before a file is picked up")
	watchCmd.Flags().Int("workers", 0, "concurrent checklists (default pipeline.workers)")
	watchCmd.Flags().Bool("export", false, "export each processed checklist")
	watchCmd.Flags().String("format", "", "export format: xlsx or json (default export.format)")
	watchCmd.Flags().String("out", "", "export directory (default export.dir)")
	watchCmd.Flags().Duration("drain-timeout", time.Minute, "how long to wait for queued checklists on exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	initial, _ := cmd.Flags().GetBool("initial-scan")
	debounce, _ := cmd.Flags().GetDuration("debounce")
	workers, _ := cmd.Flags().GetInt("workers")
	doExport, _ := cmd.Flags().GetBool("export")
	drain, _ := cmd.Flags().GetDuration("drain-timeout")
	if workers <= 0 {
		workers = cfg.Pipeline.Workers
	}
	exp, err := exportOptions(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app) error {
		q := async.NewWorkerQueue(processHandler(a, doExport, exp), logger,
			async.WithWorkers(workers),
			async.WithProcessTimeout(jobTimeout()),
		)

		events, errs, err := ingest.Watch(ctx, ingest.WatchConfig{Roots: args, InitialScan: initial, Debounce: debounce}, logger)
		if err != nil {
			_ = q.Shutdown(context.Background())
			return err
		}
		logger.Info("watching for checklists", "roots", args, "workers", workers)

	loop:
		for {
			select {
			case src, ok := <-events:
				if !ok {
					break loop
				}
				if err := q.Enqueue(ctx, async.Job{Source: src}); err != nil {
					if errors.Is(err, context.Canceled) {
						break loop
					}
					logger.Error("failed to enqueue checklist", "checklist_id", src.ChecklistID, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("watcher reported an error", "error", err)
			case <-ctx.Done():
				break loop
			}
		}

		logger.Info("stopping watcher, draining queue", "timeout", drain)
		sctx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		return q.Shutdown(sctx)
	})
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ipqc-tracker/internal/async"
	"github.com/joseph-ayodele/ipqc-tracker/internal/catalog"
	"github.com/joseph-ayodele/ipqc-tracker/internal/export"
	"github.com/joseph-ayodele/ipqc-tracker/internal/ingest"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Process every checklist found in a directory",
	Long: `Scan a directory for checklists and process them on a worker pool.

Top-level PDF and .txt files are one checklist each, and so is every
subdirectory holding page scans. Hidden files are skipped. With --export
each processed checklist is also written to the export directory.`,
	Example: `  ipqc batch scans/
  ipqc batch scans/ --workers 4 --export --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().Int("workers", 0, "concurrent checklists (default pipeline.workers)")
	batchCmd.Flags().Bool("export", false, "export each processed checklist")
	batchCmd.Flags().String("format", "", "export format: xlsx or json (default export.format)")
	batchCmd.Flags().String("out", "", "export directory (default export.dir)")
}

// batchTally counts job outcomes reported from the worker goroutines.
type batchTally struct {
	mu        sync.Mutex
	processed int
	failed    []string
}

func (t *batchTally) record(o async.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if o.Err != nil {
		t.failed = append(t.failed, fmt.Sprintf("%s: %v", o.Job.Source.ChecklistID, o.Err))
		return
	}
	t.processed++
}

func runBatch(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	doExport, _ := cmd.Flags().GetBool("export")
	if workers <= 0 {
		workers = cfg.Pipeline.Workers
	}
	exp, err := exportOptions(cmd)
	if err != nil {
		return err
	}

	srcs, stats, err := ingest.ScanDirectory(args[0], true)
	if err != nil {
		return err
	}
	logger.Info("scan complete", "dir", args[0], "scanned", stats.Scanned, "matched", stats.Matched, "skipped", stats.Skipped)
	if len(srcs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No checklists found.")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app) error {
		tally := &batchTally{}
		q := async.NewWorkerQueue(processHandler(a, doExport, exp), logger,
			async.WithWorkers(workers),
			async.WithProcessTimeout(jobTimeout()),
			async.WithOutcome(tally.record),
		)
		for _, s := range srcs {
			if err := q.Enqueue(ctx, async.Job{Source: s}); err != nil {
				logger.Error("failed to enqueue checklist", "checklist_id", s.ChecklistID, "error", err)
				break
			}
		}
		if err := q.Shutdown(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Batch processing complete!\n")
		fmt.Fprintf(out, "- Checklists found: %d\n", len(srcs))
		fmt.Fprintf(out, "- Processed: %d\n", tally.processed)
		fmt.Fprintf(out, "- Failures: %d\n", len(tally.failed))
		for _, f := range tally.failed {
			fmt.Fprintf(out, "  %s\n", f)
		}
		return nil
	})
}

type exportOpts struct {
	format export.Format
	dir    string
}

func exportOptions(cmd *cobra.Command) (exportOpts, error) {
	name, _ := cmd.Flags().GetString("format")
	dir, _ := cmd.Flags().GetString("out")
	if name == "" {
		name = cfg.Export.Format
	}
	if dir == "" {
		dir = cfg.Export.Dir
	}
	f, err := export.ParseFormat(name)
	if err != nil {
		return exportOpts{}, err
	}
	return exportOpts{format: f, dir: dir}, nil
}

// jobTimeout bounds one checklist: every page at the page timeout plus slack.
func jobTimeout() time.Duration {
	if cfg.Pipeline.PageTimeout <= 0 {
		return 0
	}
	return time.Duration(catalog.PageCount+1) * cfg.Pipeline.PageTimeout
}

func processHandler(a *app, doExport bool, exp exportOpts) async.Handler {
	return func(ctx context.Context, job async.Job) error {
		res, err := a.svc.Process(ctx, job.Source)
		if err != nil {
			return err
		}
		if len(res.Failures) > 0 {
			logger.Warn("checklist processed with failed pages", "checklist_id", job.Source.ChecklistID, "failed", len(res.Failures))
		}
		if !doExport {
			return nil
		}
		_, err = exportTo(ctx, a, job.Source.ChecklistID, exp)
		return err
	}
}

func exportTo(ctx context.Context, a *app, id string, exp exportOpts) (string, error) {
	b, err := a.svc.Export(ctx, id, exp.format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(exp.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(exp.dir, id+"."+string(exp.format))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	logger.Info("checklist exported", "checklist_id", id, "path", path)
	return path, nil
}

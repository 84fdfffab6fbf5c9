package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ipqc-tracker/internal/checklists"
	"github.com/joseph-ayodele/ipqc-tracker/internal/ingest"
)

var processCmd = &cobra.Command{
	Use:   "process <path>",
	Short: "Process one checklist from a PDF, a text file or a directory of page scans",
	Long: `Recognize and extract every page of one checklist and store the filled
form with its extraction report.

A PDF is rasterized page by page. A .txt file holds already recognized
text with pages separated by form feeds. A directory holds one image or
.txt file per page, numbered by the last digits in the file name.

Processing an existing checklist again keeps operator edits.`,
	Example: `  ipqc process scans/CL-0001.pdf
  ipqc process scans/line3-night/ --id CL-0002
  ipqc process CL-0003.txt --json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().String("id", "", "checklist ID (default: derived from the file name)")
	processCmd.Flags().Bool("json", false, "print the result as JSON")
}

func runProcess(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	asJSON, _ := cmd.Flags().GetBool("json")

	src, err := ingest.SourceFromPath(args[0])
	if err != nil {
		return err
	}
	if id != "" {
		src.ChecklistID = id
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app) error {
		res, err := a.svc.Process(ctx, src)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		printResult(cmd.OutOrStdout(), src.ChecklistID, res)
		return nil
	})
}

func printResult(w io.Writer, id string, res *checklists.ProcessResult) {
	sum := res.Report.Summary()
	fmt.Fprintf(w, "Checklist %s: %s\n", id, res.Form.Status)
	fmt.Fprintf(w, "- Pages processed: %v\n", res.Processed)
	for _, f := range res.Failures {
		fmt.Fprintf(w, "- Page %d failed: %s\n", f.Page, f.Error)
	}
	fmt.Fprintf(w, "- Success: %d, Doubtful: %d, Missing: %d, Manual: %d\n", sum.Success, sum.Doubtful, sum.Missing, sum.Manual)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/catalog"
	"github.com/joseph-ayodele/ipqc-tracker/internal/checklists"
	"github.com/joseph-ayodele/ipqc-tracker/internal/repository"
)

var showCmd = &cobra.Command{
	Use:   "show <checklist-id>",
	Short: "Show a stored form with its extraction report and activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		page, _ := cmd.Flags().GetInt("page")
		return withApp(cmd.Context(), func(a *app) error {
			d, err := a.svc.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			printDetails(cmd.OutOrStdout(), d, page)
			return nil
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <checklist-id> <sr-no>[.<sub-field>] <value>",
	Short: "Correct one checkpoint value by hand",
	Long: `Record an operator value for a checkpoint. Checkpoints with sub-fields
take the sub-field after a dot, e.g. 22.TOP. Manually entered values are
kept when the checklist is processed again.`,
	Example: `  ipqc edit CL-0001 1 "23°C"
  ipqc edit CL-0001 22.TOP "18.5 mm"`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		srNo, sub, err := parseCheckpointRef(args[1])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			entry, err := a.svc.Edit(cmd.Context(), checklists.EditRequest{
				ChecklistID: args[0], SrNo: srNo, SubKey: sub, Value: args[2],
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sr %d %s = %q (%s)\n", entry.SrNo, entry.Field, entry.Value, entry.Status)
			return nil
		})
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <checklist-id>",
	Short: "Mark a reviewed form as saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			form, err := a.svc.Save(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checklist %s: %s\n", form.ChecklistID, form.Status)
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <checklist-id>",
	Short: "Write a form and its report to an xlsx workbook or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := exportOptions(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			path, err := exportTo(cmd.Context(), a, args[0], exp)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], path)
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored forms, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		return withApp(cmd.Context(), func(a *app) error {
			forms, err := a.svc.List(cmd.Context(), repository.ListFilter{Status: constants.FormStatus(status), Limit: limit})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), forms)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHECKLIST\tSTATUS\tDATE\tSHIFT\tUPDATED")
			for _, f := range forms {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ChecklistID, f.Status, dash(f.Header.Date), dash(f.Header.Shift), f.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd, editCmd, saveCmd, exportCmd, listCmd)

	showCmd.Flags().Bool("json", false, "print as JSON")
	showCmd.Flags().Int("page", 0, "only show report entries of this page")

	exportCmd.Flags().String("format", "", "xlsx or json (default export.format)")
	exportCmd.Flags().String("out", "", "output directory (default export.dir)")

	listCmd.Flags().String("status", "", "only forms with this status")
	listCmd.Flags().Int("limit", 0, "maximum number of forms")
	listCmd.Flags().Bool("json", false, "print as JSON")
}

// parseCheckpointRef splits "22.TOP" into 22 and "TOP".
func parseCheckpointRef(s string) (int, string, error) {
	num, sub, _ := strings.Cut(s, ".")
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", fmt.Errorf("invalid checkpoint %q: want <sr-no> or <sr-no>.<sub-field>", s)
	}
	return n, sub, nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printDetails(w io.Writer, d *checklists.Details, page int) {
	f := d.Form
	fmt.Fprintf(w, "Checklist %s (%s)\n", f.ChecklistID, f.Status)
	fmt.Fprintf(w, "Date %s  Time %s  Shift %s  PO %s\n\n", dash(f.Header.Date), dash(f.Header.Time), dash(f.Header.Shift), dash(f.Header.PoNo))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tSR\tFIELD\tSTATUS\tVALUE\tREASON")
	for _, e := range d.Report.Entries() {
		if page > 0 && e.Page != page {
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", e.Page, e.SrNo, e.Field, e.Status, dash(e.Value), e.Reason)
	}
	_ = tw.Flush()

	s := d.Summary
	fmt.Fprintf(w, "\nSuccess %d  Doubtful %d  Missing %d  Manual %d  (%d checkpoints)\n", s.Success, s.Doubtful, s.Missing, s.Manual, catalog.Default().Len())
	if len(d.Activity) > 0 {
		fmt.Fprintln(w, "\nActivity:")
		for _, act := range d.Activity {
			fmt.Fprintf(w, "  %s  %-9s %s\n", act.CreatedAt.Local().Format("2006-01-02 15:04:05"), act.Action, act.Detail)
		}
	}
}

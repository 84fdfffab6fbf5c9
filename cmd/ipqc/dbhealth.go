package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/repository"
)

var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Check that the configured database is reachable and print form counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return withApp(cmd.Context(), func(a *app) error {
			if err := repository.HealthCheck(cmd.Context(), a.repo, timeout, logger); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			forms, err := a.repo.ListForms(cmd.Context(), repository.ListFilter{})
			if err != nil {
				return err
			}
			counts := map[constants.FormStatus]int{}
			for _, f := range forms {
				counts[f.Status]++
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "DB health: OK (%s)\n", cfg.Database.Driver)
			fmt.Fprintf(out, "forms: %d\n", len(forms))
			for _, s := range constants.FormStatuses() {
				if counts[s] > 0 {
					fmt.Fprintf(out, "- %s: %d\n", s, counts[s])
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dbhealthCmd)
	dbhealthCmd.Flags().Duration("timeout", time.Second, "ping timeout")
}

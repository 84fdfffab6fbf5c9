package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
)

var version = "0.1.0"

var (
	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ipqc",
	Short: "Digitize IPQC check sheets into structured, reviewable forms",
	Long: `ipqc turns scanned in-process quality control check sheets into
structured forms. Pages are recognized, fields are extracted by keyword,
pattern and optional model passes, and every result is recorded in an
extraction report that an operator can review, correct and export.

Configuration is read from ipqc.yaml (or the file named by IPQC_CONFIG)
and IPQC_* environment variables. A .env file in the working directory is
loaded first.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			if err := os.Setenv(common.EnvPrefix+"_CONFIG", path); err != nil {
				return err
			}
		}
		c, err := common.LoadConfig()
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.Log.Level = lvl
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		logger = c.Log.NewLogger(os.Stderr).With("component", cmd.Name())
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ./ipqc.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override log.level: debug, info, warn or error")
}

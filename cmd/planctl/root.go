package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ignite/gameplan-importer/internal/pkg/logger"
)

// sourceFlags are shared by every command that reads a workbook.
type sourceFlags struct {
	file        string
	sheet       string
	template    string
	countryID   string
	cycleID     string
	databaseURL string
	seed        string
	logLevel    string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "CSV or XLSX workbook (required)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet name (default first sheet)")
	cmd.Flags().StringVar(&f.template, "template", "gameplan", "Template: gameplan or sufficiency")
	cmd.Flags().StringVar(&f.countryID, "country", "", "Country id or name for sufficiency imports")
	cmd.Flags().StringVar(&f.cycleID, "cycle", "", "Financial cycle id or name (required)")
	cmd.Flags().StringVar(&f.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL reference store")
	cmd.Flags().StringVar(&f.seed, "seed", "", "YAML reference seed; runs against memory instead of PostgreSQL")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "Log level")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("cycle")
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "planctl",
		Short:         "Game plan and reach sufficiency import tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newImportCmd())
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel(level string) {
	logger.SetLevel(logger.ParseLevel(level))
}

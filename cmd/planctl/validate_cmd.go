package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/validation"
)

type validateOutput struct {
	Command    string                   `json:"command"`
	File       string                   `json:"file"`
	Template   string                   `json:"template"`
	Rows       int                      `json:"rows"`
	DurationMS int64                    `json:"duration_ms"`
	CanImport  bool                     `json:"can_import"`
	Summary    domain.ValidationSummary `json:"summary"`
	Issues     []domain.ValidationIssue `json:"issues"`
}

func newValidateCmd() *cobra.Command {
	var (
		flags   sourceFlags
		chunk   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a workbook and print its issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			start := time.Now()
			res, err := w.validate(cmd.Context(), validation.NewPipeline(chunk, timeout), flags.countryID, flags.cycleID)
			if err != nil {
				return err
			}
			return writeJSON(validateOutput{
				Command:    "validate",
				File:       flags.file,
				Template:   w.tmpl.Name,
				Rows:       len(w.records),
				DurationMS: time.Since(start).Milliseconds(),
				CanImport:  res.Summary.CanImport(),
				Summary:    res.Summary,
				Issues:     res.Issues,
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&chunk, "chunk-size", validation.DefaultChunkSize, "Rows per validation chunk")
	cmd.Flags().DurationVar(&timeout, "crossref-timeout", 10*time.Second, "Deadline of the game plan cross-check")
	return cmd
}

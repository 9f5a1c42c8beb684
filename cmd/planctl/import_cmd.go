package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/importer"
	"github.com/ignite/gameplan-importer/internal/validation"
)

type importOutput struct {
	Command    string                   `json:"command"`
	File       string                   `json:"file"`
	Template   string                   `json:"template"`
	DryRun     bool                     `json:"dry_run"`
	DurationMS int64                    `json:"duration_ms"`
	Validation domain.ValidationSummary `json:"validation"`
	Result     *importer.Result         `json:"result"`
	Created    map[string]int           `json:"created,omitempty"`
}

func newImportCmd() *cobra.Command {
	var (
		flags         sourceFlags
		progressEvery int
		quiet         bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a workbook and import it when it has no critical issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := flags.load(ctx)
			if err != nil {
				return err
			}
			defer w.close()

			start := time.Now()
			checked, err := w.validate(ctx, validation.NewPipeline(0, 0), flags.countryID, flags.cycleID)
			if err != nil {
				return err
			}
			if !checked.Summary.CanImport() {
				_ = writeJSON(validateOutput{
					Command:   "import",
					File:      flags.file,
					Template:  w.tmpl.Name,
					Rows:      len(w.records),
					CanImport: false,
					Summary:   checked.Summary,
					Issues:    checked.Issues,
				})
				return fmt.Errorf("%d critical issues; nothing imported", checked.Summary.Critical)
			}

			store, release, err := w.opener.Open(ctx)
			if err != nil {
				return err
			}
			defer release()

			res, err := importer.NewEngine(progressEvery).Run(ctx, store, importer.Request{
				Template:  w.tmpl,
				Records:   w.records,
				CountryID: flags.countryID,
				CycleID:   flags.cycleID,
			}, func(p domain.ImportProgress) {
				if !quiet {
					fmt.Fprintf(os.Stderr, "%3d%% %-20s %d/%d\n", p.Percentage, p.Stage, p.Current, p.Total)
				}
			})
			if err != nil {
				return err
			}

			out := importOutput{
				Command:    "import",
				File:       flags.file,
				Template:   w.tmpl.Name,
				DryRun:     w.memory != nil,
				DurationMS: time.Since(start).Milliseconds(),
				Validation: checked.Summary,
				Result:     res,
			}
			if w.memory != nil {
				out.Created = w.memory.Creates
			}
			return writeJSON(out)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&progressEvery, "progress-every", importer.DefaultProgressEvery, "Rows between progress lines")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress on stderr")
	return cmd
}

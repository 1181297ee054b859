package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/coloc-tools-mcp/internal/enrichment"
	"github.com/ironsheep/coloc-tools-mcp/internal/report"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs, or the fields of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.Database == "" {
				return errors.New("paths.database is not set")
			}
			store, err := report.OpenStore(cfg.Paths.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				fields, err := store.FieldSummaries(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(fields) == 0 {
					fmt.Fprintf(out, "No fields stored for run %s.\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(fields))
				for _, f := range fields {
					rows = append(rows, []string{
						f.Name,
						f.Group,
						strconv.Itoa(f.ReferenceObjects),
						strconv.Itoa(f.Colocalized),
						strconv.Itoa(f.CountedObjects),
						strconv.Itoa(f.GranuleObjects),
						strconv.Itoa(f.EnrichedObjects),
						strconv.Itoa(len(f.Warnings)),
					})
				}
				headers := []string{"Field", "Group", "Reference", "Colocalized", "Counted", "Granules", "Enriched", "Warnings"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
				fmt.Fprintln(out, renderTable(out, headers, rows, aligns))

				ratios, err := store.ObjectEnrichments(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(ratios) > 0 {
					fmt.Fprintf(out, "Median enrichment of %d objects: %.2f\n", len(ratios), enrichment.Median(ratios))
				}
				return nil
			}

			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs stored.")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					r.Name,
					r.StartedAt.Local().Format(time.DateTime),
					strconv.FormatFloat(r.Params.OverlapThreshold, 'g', -1, 64),
					strconv.Itoa(r.Params.RingRadius),
					strconv.FormatFloat(r.Params.Alpha, 'g', -1, 64),
				})
			}
			fmt.Fprintln(out, renderTable(out, []string{"ID", "Name", "Started", "Threshold", "Radius", "Alpha"}, rows, nil))
			return nil
		},
	}
	return runsCmd
}

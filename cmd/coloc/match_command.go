package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/coloc-tools-mcp/internal/channels"
	"github.com/ironsheep/coloc-tools-mcp/internal/config"
)

// scanAndMatch lists dir by the configured channel tags and matches the
// files. Data-consistency errors are logged; they never stop the match.
func scanAndMatch(cfg *config.Config, dir string, logger *slog.Logger) (*channels.ScanResult, *channels.MatchResult, error) {
	scan, err := channels.Scan(dir, cfg.Channels.Tags, cfg.Channels.Extensions)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range scan.Unassigned {
		logger.Debug("file has no channel tag", "file", name)
	}

	result, err := channels.Match(scan.Channels, cfg.Channels.PrefixLength)
	if result == nil {
		return nil, nil, err
	}
	for _, e := range unjoin(err) {
		logger.Warn("match error", "error", e)
	}
	for _, w := range result.Warnings {
		logger.Warn("match warning", "warning", w)
	}
	if len(result.Orphans) > 0 {
		logger.Info("files without a reference file", "count", len(result.Orphans), "files", strings.Join(result.Orphans, ", "))
	}
	return scan, result, nil
}

func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "match [dir]",
		Short: "Group channel files into fields of view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			dir, err := ctx.imageDir(args)
			if err != nil {
				return err
			}

			_, result, err := scanAndMatch(cfg, dir, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			writeGroups(out, cfg, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the match result as JSON")
	return cmd
}

func writeGroups(out io.Writer, cfg *config.Config, result *channels.MatchResult) {
	headers := []string{"Field", "Status"}
	for _, tag := range cfg.Channels.Tags {
		headers = append(headers, cfg.ChannelName(tag))
	}

	var rows [][]string
	add := func(groups []channels.Group, status string) {
		for _, g := range groups {
			row := []string{g.Identifier, status}
			for _, tag := range cfg.Channels.Tags {
				file, ok := g.File(tag)
				if !ok {
					file = "-"
				}
				row = append(row, file)
			}
			rows = append(rows, row)
		}
	}
	add(result.Complete, "complete")
	add(result.Partial, "partial")

	if len(rows) == 0 {
		fmt.Fprintln(out, "No fields found.")
		return
	}
	fmt.Fprintln(out, renderTable(out, headers, rows, nil))
	fmt.Fprintf(out, "%d complete, %d partial, %d orphan files\n", len(result.Complete), len(result.Partial), len(result.Orphans))
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/coloc-tools-mcp/internal/channels"
	"github.com/ironsheep/coloc-tools-mcp/internal/config"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "organize [dir]",
		Short: "Copy images into one directory per channel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dest == "" {
				return errors.New("--dest is required")
			}
			target, err := config.ExpandPath(dest)
			if err != nil {
				return err
			}
			dir, err := ctx.imageDir(args)
			if err != nil {
				return err
			}

			scan, err := channels.Scan(dir, cfg.Channels.Tags, cfg.Channels.Extensions)
			if err != nil {
				return err
			}
			written, err := channels.Organize(scan, target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(scan.Channels))
			for _, ch := range scan.Channels {
				rows = append(rows, []string{cfg.ChannelName(ch.Name), ch.Name, fmt.Sprint(len(ch.Files))})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Channel", "Tag", "Files"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
			fmt.Fprintf(out, "Copied %d files to %s\n", len(written), target)
			if len(scan.Unassigned) > 0 {
				fmt.Fprintf(out, "%d files matched no channel tag\n", len(scan.Unassigned))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination directory")
	return cmd
}

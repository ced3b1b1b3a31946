package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/andresjosehr/dollarspy/internal/apiclient"
	"github.com/andresjosehr/dollarspy/internal/cli"
	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <group-id> [name]",
		Short: "Monitor a single group by id",
		Long: `Add one group to the monitored set without opening the picker.

The id is the full group address, for example 120363012345678901@g.us.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")
			return controlPlaneError(runAdd(cmd.Context(), cmd.OutOrStdout(), client, args[0], name))
		},
	}
}

func runAdd(ctx context.Context, out io.Writer, client *apiclient.Client, id, name string) error {
	added, err := client.AddMonitored(ctx, id, name)
	if err != nil {
		return err
	}

	msg := cli.FormatSuccess("Now monitoring " + id)
	if !added {
		msg = cli.FormatInfo(id + " is already monitored")
	}
	_, err = fmt.Fprintln(out, msg)
	return err
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <group-id>",
		Aliases: []string{"rm"},
		Short:   "Stop monitoring a group",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			return controlPlaneError(runRemove(cmd.Context(), cmd.OutOrStdout(), client, args[0]))
		},
	}
}

func runRemove(ctx context.Context, out io.Writer, client *apiclient.Client, id string) error {
	removed, err := client.RemoveMonitored(ctx, id)
	if err != nil {
		return err
	}

	msg := cli.FormatSuccess("Stopped monitoring " + id)
	if !removed {
		msg = cli.FormatWarning(id + " was not monitored")
	}
	_, err = fmt.Fprintln(out, msg)
	return err
}

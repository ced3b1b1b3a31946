package main

import (
	"context"
	"fmt"
	"io"

	"github.com/andresjosehr/dollarspy/internal/apiclient"
	"github.com/andresjosehr/dollarspy/internal/cli"
	"github.com/andresjosehr/dollarspy/internal/whatsapp"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"estado"},
		Short:   "Show the WhatsApp connection state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			return controlPlaneError(runStatus(cmd.Context(), cmd.OutOrStdout(), client))
		},
	}
}

func runStatus(ctx context.Context, out io.Writer, client *apiclient.Client) error {
	state, err := client.Status(ctx)
	if err != nil {
		return err
	}
	groups, err := client.Monitored(ctx)
	if err != nil {
		return err
	}

	line := "WhatsApp: " + state
	if state == whatsapp.StateConnected {
		line = cli.FormatSuccess(line)
	} else {
		line = cli.FormatWarning(line)
	}

	_, err = fmt.Fprintln(out, cli.RenderBox(cli.DollarIcon+" dollarspy",
		line,
		cli.FormatInfo(fmt.Sprintf("Monitored groups: %d", len(groups))),
	))
	return err
}

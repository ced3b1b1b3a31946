package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/andresjosehr/dollarspy/internal/apiclient"
	"github.com/andresjosehr/dollarspy/internal/cli"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ver"},
		Short:   "Show the monitored groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			return controlPlaneError(runList(cmd.Context(), cmd.OutOrStdout(), client))
		},
	}
}

func runList(ctx context.Context, out io.Writer, client *apiclient.Client) error {
	groups, err := client.Monitored(ctx)
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		_, err := fmt.Fprintln(out, cli.InfoStyle.Render("No groups are monitored. Select some with: dollarspy groups"))
		return err
	}

	if _, err := fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Monitored groups (%d)", len(groups)))); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() {
		if flushErr := w.Flush(); flushErr != nil {
			slog.Error("failed to flush table writer", "error", flushErr)
		}
	}()

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n",
		headerStyle.Render("#"),
		headerStyle.Render("Name"),
		headerStyle.Render("ID"),
	); err != nil {
		return err
	}

	for i, g := range groups {
		name := g.Name
		if name == "" {
			name = cli.SubtleStyle.Render("(no name)")
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, name, cli.SubtleStyle.Render(g.ID)); err != nil {
			return err
		}
	}
	return nil
}

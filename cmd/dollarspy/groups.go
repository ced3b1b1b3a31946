package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/andresjosehr/dollarspy/internal/apiclient"
	"github.com/andresjosehr/dollarspy/internal/cli"
	"github.com/andresjosehr/dollarspy/internal/model"
	"github.com/spf13/cobra"
)

// pickFunc lets the operator choose groups; cli.PickGroups in production.
type pickFunc func(ctx context.Context, in io.Reader, out io.Writer, groups, monitored []model.Group) ([]model.Group, error)

func groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "groups",
		Aliases: []string{"grupos"},
		Short:   "Choose which groups to monitor",
		Long: `Show every WhatsApp group the account belongs to and pick which ones the
monitor should watch. Groups already monitored start checked.

Requires a running monitor.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			return controlPlaneError(runGroups(cmd.Context(), os.Stdin, cmd.OutOrStdout(), client, cli.PickGroups))
		},
	}
}

func runGroups(ctx context.Context, in io.Reader, out io.Writer, client *apiclient.Client, pick pickFunc) error {
	statuses, err := client.Groups(ctx)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		_, err := fmt.Fprintln(out, cli.FormatWarning("No groups found for this account"))
		return err
	}

	groups := make([]model.Group, 0, len(statuses))
	var monitored []model.Group
	for _, s := range statuses {
		g := model.Group{ID: s.ID, Name: s.Name}
		groups = append(groups, g)
		if s.Monitored {
			monitored = append(monitored, g)
		}
	}

	selected, err := pick(ctx, in, out, groups, monitored)
	if errors.Is(err, cli.ErrPickerCanceled) {
		_, err := fmt.Fprintln(out, cli.FormatInfo("No changes saved"))
		return err
	}
	if err != nil {
		return err
	}

	saved, err := client.SaveMonitored(ctx, selected)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Monitoring %d group(s)", saved)))
	return err
}

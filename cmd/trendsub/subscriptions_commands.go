package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"trendsub/internal/ipc"
)

func newSubscriptionsCommand(ctx *commandContext) *cobra.Command {
	subsCmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs"},
		Short:   "List or remove local subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSubscriptions(cmd, ctx)
		},
	}
	addJSONFlag(subsCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSubscriptions(cmd, ctx)
		},
	}
	addJSONFlag(listCmd)

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a subscription by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RemoveSubscription(args[0])
				if err != nil {
					return err
				}
				if !resp.Removed {
					return fmt.Errorf("subscription %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed subscription %s\n", args[0])
				return nil
			})
		},
	}

	subsCmd.AddCommand(listCmd, removeCmd)
	return subsCmd
}

func listSubscriptions(cmd *cobra.Command, ctx *commandContext) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.Subscriptions()
		if err != nil {
			return err
		}
		if wantsJSON(cmd) {
			return writeJSON(cmd, resp.Subscriptions)
		}
		rows := make([][]string, 0, len(resp.Subscriptions))
		for _, sub := range resp.Subscriptions {
			season := ""
			if sub.Season > 0 {
				season = strconv.Itoa(sub.Season)
			}
			rows = append(rows, []string{
				sub.ID,
				truncate(sub.Title, 40),
				sub.Year,
				sub.Kind.Label(),
				season,
				strconv.FormatInt(sub.TMDBID, 10),
				sub.Origin,
			})
		}
		printTable(cmd.OutOrStdout(),
			[]string{"ID", "Title", "Year", "Type", "Season", "TMDB", "Origin"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			"No subscriptions",
		)
		return nil
	})
}

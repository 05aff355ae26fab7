package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trendsub/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and prune subscription history",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List history records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if wantsJSON(cmd) {
					return writeJSON(cmd, resp.Records)
				}
				rows := make([][]string, 0, len(resp.Records))
				for _, rec := range resp.Records {
					rows = append(rows, []string{
						rec.Timestamp,
						rec.Category,
						truncate(rec.Title, 40),
						rec.Year,
						fmt.Sprintf("%.1f", rec.Rating),
						rec.UniqueKey,
					})
				}
				printTable(cmd.OutOrStdout(),
					[]string{"Time", "Category", "Title", "Year", "Rating", "Key"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					"History is empty",
				)
				return nil
			})
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum records to show (0 for all)")
	addJSONFlag(listCmd)

	var apiKey string
	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete one history record by its unique key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			token := apiKey
			if token == "" {
				if cfg := ctx.configValue(); cfg != nil {
					token = cfg.Paths.APIToken
				}
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DeleteHistory(key, token)
				if err != nil {
					return err
				}
				if !resp.Success {
					return errors.New(resp.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
	deleteCmd.Flags().StringVar(&apiKey, "apikey", "", "API token (defaults to paths.api_token)")

	historyCmd.AddCommand(listCmd, deleteCmd)
	return historyCmd
}

func newProcessedCommand(ctx *commandContext) *cobra.Command {
	processedCmd := &cobra.Command{
		Use:   "processed",
		Short: "Manage processed item keys",
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every processed key so items are considered again",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ClearProcessed()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d processed keys\n", resp.Removed)
				return nil
			})
		},
	}
	processedCmd.AddCommand(clearCmd)
	return processedCmd
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"trendsub/internal/daemonrun"
	"trendsub/internal/ipc"
	"trendsub/internal/logging"
	"trendsub/internal/pipeline"
	"trendsub/internal/scheduler"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Queue a run on the daemon, or run once in-process with --once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if once {
				return runInProcess(cmd, ctx)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunOnce()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing run response")
				}
				if resp.Queued {
					fmt.Fprintln(cmd.OutOrStdout(), "Run queued")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Run already pending; request coalesced")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run the pipeline in this process instead of the daemon")
	addJSONFlag(cmd)
	return cmd
}

func runInProcess(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg, "")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if wantsJSON(cmd) {
		logger = logging.NewNop()
	}
	summary, err := daemonrun.RunOnce(cmd.Context(), cfg, logger, scheduler.TriggerManual)
	if err != nil {
		return err
	}
	if wantsJSON(cmd) {
		return writeJSON(cmd, summary)
	}
	renderSummary(cmd.OutOrStdout(), summary)
	return nil
}

func renderSummary(w io.Writer, summary pipeline.RunSummary) {
	fmt.Fprintf(w, "Run %s (%s) finished in %s\n", summary.RunID, summary.Trigger,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	if summary.Cancelled {
		fmt.Fprintln(w, "Run was cancelled before completion")
	}

	rows := make([][]string, 0, len(summary.Categories))
	for _, cat := range summary.Categories {
		name := cat.Name
		if cat.Faulted {
			name += " (faulted)"
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(cat.Fetched),
			strconv.Itoa(cat.Filtered),
			strconv.Itoa(cat.Duplicate),
			strconv.Itoa(cat.Unresolved),
			strconv.Itoa(cat.Skipped),
			strconv.Itoa(cat.Failed),
			strconv.Itoa(cat.Added),
		})
	}
	printTable(w,
		[]string{"Category", "Fetched", "Filtered", "Seen", "Unresolved", "Skipped", "Failed", "Added"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		"No categories enabled",
	)

	added := make([][]string, 0, len(summary.Added))
	for _, item := range summary.Added {
		added = append(added, []string{item.Category, item.Title, fmt.Sprintf("%.1f", item.Rating)})
	}
	printTable(w, []string{"Category", "Title", "Rating"}, added,
		[]columnAlignment{alignLeft, alignLeft, alignRight}, "No new subscriptions")
}

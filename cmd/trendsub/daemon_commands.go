package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"trendsub/internal/daemon"
	"trendsub/internal/daemonctl"
	"trendsub/internal/daemonrun"
	"trendsub/internal/pipeline"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var runOnStart bool
	var logLevel string
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the trendsub daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:   logLevel,
				RunOnStart: runOnStart,
			})
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Queue one run immediately after startup")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startRunOnStart bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the trendsub daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(ctx.configValue(), exe, daemonctl.LaunchOptions{
				ConfigPath: ctx.configPath(),
				RunOnStart: startRunOnStart,
			}, 10*time.Second)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.PID)
			}
			return nil
		},
	}
	startCmd.Flags().BoolVar(&startRunOnStart, "run-on-start", false, "Queue one run immediately after startup")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the trendsub daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.configValue(), 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, scheduler, and last run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			client, err := ctx.dialClient()
			if err != nil {
				if wantsJSON(cmd) {
					return writeJSON(cmd, daemon.Status{})
				}
				printSection(stdout, "Daemon", colorize)
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "Not running", colorize))
				return nil
			}
			defer client.Close()
			status, err := client.Status()
			if err != nil {
				return err
			}
			if wantsJSON(cmd) {
				return writeJSON(cmd, status)
			}
			renderStatus(stdout, status, colorize)
			return nil
		},
	}
	addJSONFlag(statusCmd)

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func renderStatus(w io.Writer, status *daemon.Status, colorize bool) {
	printSection(w, "Daemon", colorize)
	if status.Running {
		fmt.Fprintln(w, renderStatusLine("Daemon", statusOK, "Running (pid "+strconv.Itoa(status.PID)+")", colorize))
	} else {
		fmt.Fprintln(w, renderStatusLine("Daemon", statusWarn, "Stopped", colorize))
	}
	fmt.Fprintln(w, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))

	sched := status.Admin.Scheduler
	fmt.Fprintln(w)
	printSection(w, "Scheduler", colorize)
	if sched.Schedule == "" {
		fmt.Fprintln(w, renderStatusLine("Schedule", statusWarn, "Disabled", colorize))
	} else {
		fmt.Fprintln(w, renderStatusLine("Schedule", statusOK, sched.Schedule, colorize))
		fmt.Fprintln(w, renderStatusLine("Next run", statusInfo, formatTime(sched.NextRun), colorize))
	}
	fmt.Fprintln(w, renderStatusLine("Last run", statusInfo, formatTime(sched.LastRun), colorize))
	fmt.Fprintln(w, renderStatusLine("Run active", statusInfo, yesNo(sched.Active), colorize))
	fmt.Fprintln(w, renderStatusLine("Run pending", statusInfo, yesNo(sched.Pending), colorize))
	progress := status.Admin.Progress
	if progress.State != pipeline.StateIdle {
		fmt.Fprintln(w, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%s %s", progress.State, progress.Category), colorize))
	}

	fmt.Fprintln(w)
	printSection(w, "Storage", colorize)
	fmt.Fprintln(w, renderStatusLine("Processed keys", statusInfo, strconv.Itoa(status.Admin.ProcessedKeys), colorize))
	fmt.Fprintln(w, renderStatusLine("History", statusInfo, strconv.Itoa(status.Admin.HistoryCount), colorize))
	fmt.Fprintln(w, renderStatusLine("Subscriptions", statusInfo, strconv.Itoa(status.Admin.Subscriptions), colorize))

	if status.Admin.LastRun != nil {
		fmt.Fprintln(w)
		printSection(w, "Last Run", colorize)
		renderSummary(w, *status.Admin.LastRun)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

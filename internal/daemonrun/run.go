package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"trendsub/internal/admin"
	"trendsub/internal/config"
	"trendsub/internal/daemon"
	"trendsub/internal/ipc"
	"trendsub/internal/logging"
	"trendsub/internal/pipeline"
	"trendsub/internal/scheduler"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// RunOnStart queues one run right after startup.
	RunOnStart bool
}

// Run starts the trendsub daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("trendsub-%s.log", runID))
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update trendsub.log link: %v\n", err)
	}
	logging.PruneLogs(logger, cfg.Paths.LogDir, "trendsub-*.log", cfg.Logging.RetentionDays, logPath)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	comps, err := Build(cfg, logger)
	if err != nil {
		logger.Error("build pipeline", logging.Error(err))
		return err
	}

	if cfg.Subscribe.ClearHistory {
		if released, err := comps.ClearHistory(signalCtx); err != nil {
			logging.WarnWithContext(logger, "history clear failed", "history_clear_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check database and data_dir permissions"),
				logging.String(logging.FieldImpact, "previous run history remains visible"),
			)
		} else {
			logger.Info("history cleared at startup",
				logging.Int("released_keys", released),
				logging.String(logging.FieldEventType, "history_cleared"),
			)
		}
	}

	sched := scheduler.New(func(ctx context.Context, trigger string) {
		comps.Runner.Run(ctx, pipeline.SnapshotFromConfig(cfg), trigger)
	}, logger)
	svc := admin.New(admin.Deps{
		Token:         cfg.Paths.APIToken,
		Processed:     comps.Processed,
		History:       comps.History,
		Subscriptions: comps.Store,
		Scheduler:     sched,
		Runner:        comps.Runner,
		Notifier:      comps.Notifier,
		Logger:        logger,
	})

	d, err := daemon.New(cfg, svc, sched, logger, daemon.Options{RunOnStart: opts.RunOnStart}, comps)
	if err != nil {
		_ = comps.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the schedule expression, api_bind, and the lock file"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("trendsub daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "trendsub.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	enabled := cfg.EnabledCategories()
	keys := make([]string, 0, len(enabled))
	for _, cat := range enabled {
		keys = append(keys, cat.Key)
	}
	logger.Info("config snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.Bool("tmdb_key_present", strings.TrimSpace(cfg.TMDB.APIKey) != ""),
		logging.Bool("schedule_enabled", cfg.Schedule.Enabled),
		logging.String("cron", cfg.Schedule.Cron),
		logging.Bool("proxy", cfg.EffectiveProxy() != ""),
		logging.Bool("notify", cfg.Subscribe.Notify),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("jellyfin_enabled", cfg.Jellyfin.Enabled),
		logging.Float64("min_rating", cfg.Subscribe.MinRating),
		logging.String("categories", strings.Join(keys, ",")),
	)
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"trendsub/internal/admin"
	"trendsub/internal/config"
	"trendsub/internal/logging"
	"trendsub/internal/scheduler"
)

// Daemon coordinates the scheduler and the admin API and enforces
// single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	admin     *admin.Service
	scheduler *scheduler.Scheduler
	closers   []io.Closer
	opts      Options

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Options tunes daemon startup.
type Options struct {
	// RunOnStart queues one run as soon as the scheduler is up.
	RunOnStart bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool         `json:"running"`
	PID          int          `json:"pid"`
	DatabasePath string       `json:"database_path"`
	LockFilePath string       `json:"lock_path"`
	Admin        admin.Status `json:"admin"`
}

// New constructs a daemon around an admin service and its scheduler. The
// closers are released in reverse order by Close.
func New(cfg *config.Config, svc *admin.Service, sched *scheduler.Scheduler, logger *slog.Logger, opts Options, closers ...io.Closer) (*Daemon, error) {
	if cfg == nil || svc == nil || sched == nil {
		return nil, errors.New("daemon requires config, admin service, and scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		admin:     svc,
		scheduler: sched,
		closers:   closers,
		opts:      opts,
		lockPath:  cfg.LockPath(),
		lock:      flock.New(cfg.LockPath()),
	}
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, starts the scheduler, and opens the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another trendsub daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	spec := ""
	if d.cfg.Schedule.Enabled {
		spec = strings.TrimSpace(d.cfg.Schedule.Cron)
	}
	if err := d.scheduler.Start(d.ctx, spec); err != nil {
		d.abortStart()
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.scheduler.Stop()
		d.abortStart()
		return fmt.Errorf("start api: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("trendsub daemon started",
		logging.String("lock", d.lockPath),
		logging.Bool("schedule_enabled", spec != ""),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	if d.opts.RunOnStart {
		d.scheduler.Trigger(scheduler.TriggerStartup)
	}
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// Stop stops the scheduler, closes the API, and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.scheduler.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("trendsub daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if d.closers[i] == nil {
			continue
		}
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// Admin exposes the administrative operations to the IPC server.
func (d *Daemon) Admin() *admin.Service {
	return d.admin
}

// APIAddress returns the bound HTTP API address, or "" when the API is off
// or not yet listening.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		Admin:        d.admin.Status(ctx),
	}
}

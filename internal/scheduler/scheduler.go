package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"trendsub/internal/logging"
)

// Trigger names recorded on runs.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerStartup  = "startup"
)

// RunFunc executes one run. It must honour ctx cancellation.
type RunFunc func(ctx context.Context, trigger string)

// Status describes the scheduler for status surfaces.
type Status struct {
	Running  bool      `json:"running"`
	Active   bool      `json:"active"`
	Pending  bool      `json:"pending"`
	Schedule string    `json:"schedule,omitempty"`
	NextRun  time.Time `json:"next_run"`
	LastRun  time.Time `json:"last_run"`
}

// Scheduler owns the single run worker. Cron ticks and manual requests are
// queued into one slot: while a run is active at most one more is pending and
// further requests coalesce into it.
type Scheduler struct {
	run    RunFunc
	logger *slog.Logger

	pending chan string

	mu       sync.RWMutex
	running  bool
	active   bool
	lastRun  time.Time
	spec     string
	cron     *cron.Cron
	entry    cron.EntryID
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	location *time.Location
}

// New constructs a scheduler that executes run on its worker goroutine.
func New(run RunFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		run:      run,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		pending:  make(chan string, 1),
		location: time.Local,
	}
}

// Start launches the worker and, when spec is non-empty, the cron schedule.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if s.run == nil {
		return errors.New("scheduler run function not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}

	spec = strings.TrimSpace(spec)
	var c *cron.Cron
	if spec != "" {
		c = cron.New(cron.WithLocation(s.location))
		id, err := c.AddFunc(spec, func() { s.Trigger(TriggerSchedule) })
		if err != nil {
			return fmt.Errorf("parse schedule %q: %w", spec, err)
		}
		s.entry = id
	}

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.cron = c
	s.spec = spec
	s.running = true
	s.wg.Add(1)
	go s.worker(workerCtx)
	if c != nil {
		c.Start()
		s.logger.Info("schedule active", logging.String("cron", spec), logging.Any("next_run", c.Entry(s.entry).Next))
	}
	return nil
}

// Trigger requests a run. It returns false when the request coalesced into
// an already pending one.
func (s *Scheduler) Trigger(trigger string) bool {
	select {
	case s.pending <- trigger:
		s.logger.Debug("run queued", logging.String(logging.FieldTrigger, trigger))
		return true
	default:
		s.logger.Info("run already pending; request coalesced", logging.String(logging.FieldTrigger, trigger))
		return false
	}
}

// Stop halts the schedule, cancels any active run, and waits for the worker
// to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	cancel := s.cancel
	s.running = false
	s.cron = nil
	s.cancel = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	cancel()
	s.wg.Wait()
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Running:  s.running,
		Active:   s.active,
		Pending:  len(s.pending) > 0,
		Schedule: s.spec,
		LastRun:  s.lastRun,
	}
	if s.cron != nil {
		st.NextRun = s.cron.Entry(s.entry).Next
	}
	return st
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-s.pending:
			if ctx.Err() != nil {
				return
			}
			s.execute(ctx, trigger)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, trigger string) {
	s.setActive(true)
	defer s.setActive(false)
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("run panicked",
				logging.Any("panic", rec),
				logging.String(logging.FieldTrigger, trigger),
				logging.String(logging.FieldEventType, "run_panic"),
			)
		}
	}()
	s.run(ctx, trigger)
}

func (s *Scheduler) setActive(active bool) {
	s.mu.Lock()
	s.active = active
	if !active {
		s.lastRun = time.Now()
	}
	s.mu.Unlock()
}

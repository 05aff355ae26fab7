package admin

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"

	"trendsub/internal/history"
	"trendsub/internal/logging"
	"trendsub/internal/notifications"
	"trendsub/internal/pipeline"
	"trendsub/internal/scheduler"
	"trendsub/internal/store"
)

// Result is the structured answer of token-guarded operations.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Messages returned by DeleteHistory.
const (
	MessageBadToken     = "API密钥错误"
	MessageDeleted      = "删除成功"
	MessageTokenMissing = "API令牌未配置"
)

// ProcessedSet is the clearable processed-key store.
type ProcessedSet interface {
	Clear() error
	Remove(key string) (bool, error)
	Len() int
}

// HistoryLog is the history surface the admin operations need.
type HistoryLog interface {
	List(ctx context.Context) ([]history.Record, error)
	Delete(ctx context.Context, uniqueKey string) (bool, error)
}

// SubscriptionStore lists and prunes the local registry.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context) ([]store.Subscription, error)
	RemoveSubscription(ctx context.Context, id string) (bool, error)
}

// Trigger queues runs.
type Trigger interface {
	Trigger(trigger string) bool
	Status() scheduler.Status
}

// RunState reports pipeline progress.
type RunState interface {
	Progress() pipeline.Progress
	LastSummary() (pipeline.RunSummary, bool)
}

// Deps wires the admin service.
type Deps struct {
	Token         string
	Processed     ProcessedSet
	History       HistoryLog
	Subscriptions SubscriptionStore
	Scheduler     Trigger
	Runner        RunState
	Notifier      notifications.Service
	Logger        *slog.Logger
}

// Service implements the administrative operations shared by the HTTP API,
// the IPC server, and the CLI.
type Service struct {
	deps   Deps
	logger *slog.Logger
}

// New builds the admin service.
func New(deps Deps) *Service {
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewNoop()
	}
	return &Service{deps: deps, logger: logging.NewComponentLogger(deps.Logger, "admin")}
}

// Status is the daemon overview.
type Status struct {
	Scheduler     scheduler.Status     `json:"scheduler"`
	Progress      pipeline.Progress    `json:"progress"`
	LastRun       *pipeline.RunSummary `json:"last_run,omitempty"`
	ProcessedKeys int                  `json:"processed_keys"`
	HistoryCount  int                  `json:"history_count"`
	Subscriptions int                  `json:"subscriptions"`
}

// Authorized reports whether token matches the configured API token. An
// unconfigured token rejects everything.
func (s *Service) Authorized(token string) bool {
	want := strings.TrimSpace(s.deps.Token)
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(want)) == 1
}

// DeleteHistory removes the history record with key when token matches.
// Douban keys are also released from the processed set, so the item is
// picked up again on the next run. A mismatch returns a failed Result and
// changes nothing.
func (s *Service) DeleteHistory(ctx context.Context, key, token string) Result {
	if strings.TrimSpace(s.deps.Token) == "" {
		return Result{Success: false, Message: MessageTokenMissing}
	}
	logger := logging.WithContext(ctx, s.logger)
	if !s.Authorized(token) {
		logging.WarnWithContext(logger, "history delete rejected", "auth_failed",
			logging.String(logging.FieldErrorHint, "pass the paths.api_token value as apikey"),
			logging.String(logging.FieldImpact, "history unchanged"),
		)
		return Result{Success: false, Message: MessageBadToken}
	}
	removed, err := s.deps.History.Delete(ctx, key)
	if err != nil {
		logger.Error("history delete failed", logging.String("key", key), logging.Error(err))
		return Result{Success: false, Message: err.Error()}
	}
	logger.Info("history record deleted", logging.String("key", key), logging.Bool("found", removed))
	if pipeline.IsDoubanKey(key) && s.deps.Processed != nil {
		released, err := s.deps.Processed.Remove(key)
		if err != nil {
			logging.WarnWithContext(logger, "processed key not released", "dedup_failed",
				logging.String("key", key),
				logging.Error(err),
				logging.String(logging.FieldImpact, "item stays skipped until processed keys are cleared"),
			)
		} else if released {
			logger.Debug("processed key released", logging.String("key", key))
		}
	}
	return Result{Success: true, Message: MessageDeleted}
}

// ClearProcessed empties the processed-key set so every item is novel again.
func (s *Service) ClearProcessed(context.Context) (int, error) {
	count := s.deps.Processed.Len()
	if err := s.deps.Processed.Clear(); err != nil {
		return 0, fmt.Errorf("clear processed keys: %w", err)
	}
	s.logger.Info("processed keys cleared", logging.Int("removed", count), logging.String(logging.FieldEventType, "processed_cleared"))
	return count, nil
}

// RunNow queues a manual run. It reports false when the request coalesced
// into an already pending run.
func (s *Service) RunNow(context.Context) bool {
	return s.deps.Scheduler.Trigger(scheduler.TriggerManual)
}

// History returns the records newest first.
func (s *Service) History(ctx context.Context) ([]history.Record, error) {
	return s.deps.History.List(ctx)
}

// Subscriptions lists the local registry.
func (s *Service) Subscriptions(ctx context.Context) ([]store.Subscription, error) {
	return s.deps.Subscriptions.ListSubscriptions(ctx)
}

// RemoveSubscription drops one registry entry by id. It reports whether a
// row was removed.
func (s *Service) RemoveSubscription(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("subscription id required")
	}
	removed, err := s.deps.Subscriptions.RemoveSubscription(ctx, id)
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	if removed {
		s.logger.Info("subscription removed", logging.String("id", id))
	}
	return removed, nil
}

// TestNotification sends the fixed test message.
func (s *Service) TestNotification(ctx context.Context) error {
	return notifications.TestNotification(ctx, s.deps.Notifier)
}

// Status gathers scheduler, run, and storage counters.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		Scheduler:     s.deps.Scheduler.Status(),
		Progress:      s.deps.Runner.Progress(),
		ProcessedKeys: s.deps.Processed.Len(),
	}
	if last, ok := s.deps.Runner.LastSummary(); ok {
		st.LastRun = &last
	}
	if records, err := s.deps.History.List(ctx); err == nil {
		st.HistoryCount = len(records)
	} else {
		s.logger.Warn("failed to read history", logging.Error(err))
	}
	if subs, err := s.deps.Subscriptions.ListSubscriptions(ctx); err == nil {
		st.Subscriptions = len(subs)
	} else {
		s.logger.Warn("failed to read subscriptions", logging.Error(err))
	}
	return st
}

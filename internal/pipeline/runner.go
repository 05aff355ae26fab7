package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"trendsub/internal/catalog"
	"trendsub/internal/history"
	"trendsub/internal/logging"
	"trendsub/internal/notifications"
	"trendsub/internal/recognize"
	"trendsub/internal/services"
	"trendsub/internal/subscribe"
)

// Fetcher returns a category's ranked items. It absorbs its own failures.
type Fetcher interface {
	Fetch(ctx context.Context, cat catalog.Category) []catalog.Item
}

// Deduplicator is the durable processed-key set.
type Deduplicator interface {
	IsProcessed(key string) bool
	MarkProcessed(key string) error
}

// Resolver maps an item to its canonical media, or nil.
type Resolver interface {
	Resolve(ctx context.Context, item catalog.Item, cat catalog.Category) *recognize.Media
}

// Registrar creates subscriptions for media not yet present.
type Registrar interface {
	RegisterIfAbsent(ctx context.Context, media recognize.Media, season int, origin string) subscribe.Outcome
}

// History records successful subscriptions.
type History interface {
	Append(ctx context.Context, rec history.Record) error
}

// Deps wires the runner's collaborators. Sleep and Jitter default to a
// context-aware timer and math/rand.
type Deps struct {
	Fetcher   Fetcher
	Dedup     Deduplicator
	Resolver  Resolver
	Registrar Registrar
	History   History
	Notifier  notifications.Service
	Logger    *slog.Logger
	Sleep     func(ctx context.Context, d time.Duration) error
	Jitter    func() float64
}

// Runner executes one pass over the configured categories at a time.
type Runner struct {
	deps   Deps
	logger *slog.Logger

	runMu sync.Mutex

	mu       sync.RWMutex
	progress Progress
	last     *RunSummary
}

// NewRunner builds a runner from deps.
func NewRunner(deps Deps) *Runner {
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	if deps.Jitter == nil {
		deps.Jitter = rand.Float64
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewNoop()
	}
	return &Runner{
		deps:     deps,
		logger:   logging.NewComponentLogger(deps.Logger, "pipeline"),
		progress: Progress{State: StateIdle},
	}
}

// Progress returns the current state.
func (r *Runner) Progress() Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progress
}

// LastSummary returns the summary of the most recent finished run.
func (r *Runner) LastSummary() (RunSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return RunSummary{}, false
	}
	return *r.last, true
}

// Run performs one pass. Cancelling ctx stops the run before the next
// category or item starts; everything committed before that stays committed.
// A stop that arrives after the last item leaves the run complete.
func (r *Runner) Run(ctx context.Context, snap Snapshot, trigger string) RunSummary {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	summary := RunSummary{
		RunID:      uuid.NewString(),
		Trigger:    trigger,
		StartedAt:  time.Now(),
		Categories: make([]CategorySummary, 0, len(snap.Categories)),
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	ctx = services.WithTrigger(ctx, trigger)
	logger := logging.WithContext(ctx, r.logger)

	r.setProgress(Progress{State: StateFetching, RunID: summary.RunID, Trigger: trigger, StartedAt: summary.StartedAt})
	defer r.finish(&summary)

	logger.Info("run started", logging.Int("categories", len(snap.Categories)), logging.String(logging.FieldEventType, "run_started"))
	for i, cat := range snap.Categories {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		counters := CategorySummary{Key: cat.Key, Name: cat.Name}
		cancelled := r.runCategory(services.WithCategory(ctx, cat.Key), i, cat, snap, &counters, &summary)
		summary.Categories = append(summary.Categories, counters)
		if cancelled {
			summary.Cancelled = true
			break
		}
	}

	if summary.Cancelled {
		logger.Info("run cancelled", logging.Int("added", len(summary.Added)), logging.String(logging.FieldEventType, "run_cancelled"))
		return summary
	}

	if snap.Notify && !summary.Empty() {
		r.setState(StateNotifying)
		title, body := notificationText(summary.Added)
		if err := r.deps.Notifier.Post(inFlight(ctx), notifications.EventRunSummary, title, body); err != nil {
			logging.WarnWithContext(logger, "run notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "subscriptions were added but not announced"),
			)
		} else {
			summary.Notified = true
		}
	}
	logger.Info("run finished",
		logging.Int("added", len(summary.Added)),
		logging.Bool("notified", summary.Notified),
		logging.String(logging.FieldEventType, "run_finished"),
	)
	return summary
}

// runCategory processes one category and reports whether the run was
// cancelled while inside it. Panics are contained to the category.
func (r *Runner) runCategory(ctx context.Context, index int, cat catalog.Category, snap Snapshot, counters *CategorySummary, summary *RunSummary) (cancelled bool) {
	logger := logging.WithContext(ctx, r.logger)
	defer func() {
		if rec := recover(); rec != nil {
			counters.Faulted = true
			logging.ErrorWithContext(logger, "category aborted", "category_fault",
				logging.Any("panic", rec),
				logging.String(logging.FieldImpact, "remaining items in this category skipped"),
			)
			cancelled = false
		}
	}()

	r.updateProgress(func(p *Progress) {
		p.State = StateFetching
		p.Category = cat.Key
		p.CategoryIndex = index
		p.ItemIndex = 0
	})
	items := r.deps.Fetcher.Fetch(inFlight(ctx), cat)
	counters.Fetched = len(items)
	if len(items) == 0 {
		logger.Info("category returned no items", logging.String("name", cat.Name))
		return false
	}
	logger.Info("category fetched", logging.String("name", cat.Name), logging.Int("items", len(items)))

	for j, item := range items {
		if ctx.Err() != nil {
			return true
		}
		r.updateProgress(func(p *Progress) {
			p.State = StateProcessing
			p.ItemIndex = j
		})

		if !Passes(item, snap.MinRating) {
			counters.Filtered++
			logger.Debug("below rating threshold",
				logging.String("title", item.Title),
				logging.Float64("rating", item.Rating),
				logging.Float64("threshold", snap.MinRating),
			)
			continue
		}
		key := ProcessedKey(item, cat)
		if r.deps.Dedup.IsProcessed(key) {
			counters.Duplicate++
			logger.Debug("already processed", logging.String("key", key))
			continue
		}

		r.processItem(ctx, item, cat, key, counters, summary)
		// A stop during the pause is seen at the next boundary, if any.
		r.pause(ctx, snap)
	}
	return false
}

// processItem resolves and registers one novel item. Failures stop at the item.
func (r *Runner) processItem(ctx context.Context, item catalog.Item, cat catalog.Category, key string, counters *CategorySummary, summary *RunSummary) {
	attrs := append(logging.Item(item.Title, key, item.Rating), logging.String("external_id", item.ExternalID))
	logger := logging.WithContext(ctx, r.logger).With(logging.Args(attrs...)...)
	defer func() {
		if rec := recover(); rec != nil {
			counters.Failed++
			logger.Error("item processing panicked", logging.Any("panic", rec), logging.String(logging.FieldEventType, "item_fault"))
		}
	}()

	// Cancellation is observed between items; a started item runs to completion.
	ctx = inFlight(ctx)
	media := r.deps.Resolver.Resolve(ctx, item, cat)
	if media == nil {
		counters.Unresolved++
		logging.WarnWithContext(logger, "media not recognized", "resolve_failed",
			logging.String(logging.FieldErrorHint, "check the title on TMDB or the tmdb.language setting"),
		)
		return
	}

	outcome := r.deps.Registrar.RegisterIfAbsent(ctx, *media, media.Season, subscribe.OriginFor(cat.Source()))
	switch {
	case outcome.Added:
	case outcome.AlreadySubscribed():
		counters.Skipped++
		r.markProcessed(logger, key)
		return
	case outcome.Reason == subscribe.ReasonInLibrary:
		counters.Skipped++
		return
	default:
		counters.Failed++
		logging.ErrorWithContext(logger, "subscription failed", "subscribe_failed",
			logging.String("reason", outcome.Reason),
			logging.Int64("tmdb_id", media.ID),
			logging.String(logging.FieldErrorHint, "check the jellyfin and subscription store settings"),
			logging.String(logging.FieldImpact, "item will be retried next run"),
		)
		return
	}

	counters.Added++
	r.markProcessed(logger, key)
	if r.deps.History != nil {
		rec := history.Record{
			Title:       item.Title,
			Kind:        media.Kind.Label(),
			Year:        media.Year,
			PosterURL:   media.PosterURL,
			Overview:    media.Overview,
			CanonicalID: media.CanonicalID(),
			ExternalID:  item.ExternalID,
			Rating:      item.Rating,
			Category:    cat.Name,
			UniqueKey:   key,
		}
		if err := r.deps.History.Append(ctx, rec); err != nil {
			logging.WarnWithContext(logger, "history append failed", "history_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "subscription missing from history"),
			)
		}
	}
	summary.Added = append(summary.Added, AddedItem{
		Category:       cat.Name,
		Title:          item.Title,
		Rating:         item.Rating,
		Source:         cat.Source(),
		Key:            key,
		SubscriptionID: outcome.SubscriptionID,
	})
	logger.Info("subscribed", logging.String("subscription_id", outcome.SubscriptionID), logging.String(logging.FieldEventType, "subscribed"))
}

func (r *Runner) markProcessed(logger *slog.Logger, key string) {
	if err := r.deps.Dedup.MarkProcessed(key); err != nil {
		logging.WarnWithContext(logger, "processed key not saved", "dedup_failed",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "item may be attempted again next run"),
		)
	}
}

// inFlight keeps ctx values such as the run id but drops its cancellation,
// so a stop request never tears down a request or commit halfway.
func inFlight(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (r *Runner) pause(ctx context.Context, snap Snapshot) {
	if snap.PauseMax <= 0 {
		return
	}
	span := snap.PauseMax - snap.PauseMin
	d := snap.PauseMin
	if span > 0 {
		d += time.Duration(r.deps.Jitter() * float64(span))
	}
	if d <= 0 {
		return
	}
	_ = r.deps.Sleep(ctx, d)
}

func (r *Runner) finish(summary *RunSummary) {
	summary.FinishedAt = time.Now()
	r.mu.Lock()
	copied := *summary
	r.last = &copied
	r.progress = Progress{State: StateIdle}
	r.mu.Unlock()
}

func (r *Runner) setProgress(p Progress) {
	r.mu.Lock()
	r.progress = p
	r.mu.Unlock()
}

func (r *Runner) setState(state State) {
	r.updateProgress(func(p *Progress) { p.State = state })
}

func (r *Runner) updateProgress(fn func(*Progress)) {
	r.mu.Lock()
	fn(&r.progress)
	r.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pause interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"trendsub/internal/catalog"
	"trendsub/internal/config"
	"trendsub/internal/dedup"
	"trendsub/internal/history"
	"trendsub/internal/logging"
	"trendsub/internal/notifications"
	"trendsub/internal/pipeline"
	"trendsub/internal/recognize"
	"trendsub/internal/services/jellyfin"
	"trendsub/internal/store"
	"trendsub/internal/subscribe"
	"trendsub/internal/tmdb"
)

// Components is the wired pipeline graph shared by the daemon and one-shot
// runs.
type Components struct {
	Store     *store.Store
	Processed *dedup.Set
	History   *history.Log
	Runner    *pipeline.Runner
	Notifier  notifications.Service
}

// Build opens storage and wires fetcher, resolver, registrar, and runner from cfg.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	processed, err := dedup.Open(cfg.ProcessedPath())
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open processed keys: %w", err)
	}
	comps := &Components{Store: st, Processed: processed}

	httpClient, err := catalog.NewHTTPClient(catalog.HTTPOptions{
		UserAgent: cfg.Douban.UserAgent,
		Referer:   cfg.Douban.Referer,
		Timeout:   time.Duration(cfg.Douban.TimeoutSeconds) * time.Second,
		Proxy:     cfg.EffectiveProxy(),
	})
	if err != nil {
		_ = comps.Close()
		return nil, err
	}
	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithHTTPClient(httpClient.Client()))
	if err != nil {
		_ = comps.Close()
		return nil, fmt.Errorf("tmdb client: %w", err)
	}

	comps.History = history.New(st, cfg.Subscribe.HistoryLimit)
	comps.Notifier = notifications.NewService(cfg)

	fetcher := catalog.NewFetcher(httpClient, tmdbClient, logger)
	resolver := recognize.NewResolver(tmdbClient, catalog.NewDoubanXRef(httpClient, ""), recognize.Options{
		Source:       cfg.Subscribe.RecognizeSource,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
	}, logger)
	registrar := subscribe.NewRegistrar(jellyfin.NewConfiguredService(cfg), st, logger)

	comps.Runner = pipeline.NewRunner(pipeline.Deps{
		Fetcher:   fetcher,
		Dedup:     processed,
		Resolver:  resolver,
		Registrar: registrar,
		History:   comps.History,
		Notifier:  comps.Notifier,
		Logger:    logger,
	})
	return comps, nil
}

// ClearHistory drops every history record along with the Douban processed
// keys they stand for. TMDB keys stay. It returns the number of keys released.
func (c *Components) ClearHistory(ctx context.Context) (int, error) {
	if err := c.History.Clear(ctx); err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	released, err := c.Processed.RemoveFunc(pipeline.IsDoubanKey)
	if err != nil {
		return 0, fmt.Errorf("release douban keys: %w", err)
	}
	return released, nil
}

// Close releases the processed-key file and the store.
func (c *Components) Close() error {
	var errs []error
	if c.Processed != nil {
		errs = append(errs, c.Processed.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}

// ErrDaemonRunning is returned by RunOnce while a daemon holds the lock.
var ErrDaemonRunning = errors.New("trendsub daemon is running; use `trendsub run` to queue a run on it")

// RunOnce builds the graph, executes a single run in-process, and closes it.
// It holds the daemon lock for the whole run, so it never overlaps a daemon
// run against the same data directory.
func RunOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger, trigger string) (pipeline.RunSummary, error) {
	if cfg == nil {
		return pipeline.RunSummary{}, errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return pipeline.RunSummary{}, err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return pipeline.RunSummary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return pipeline.RunSummary{}, ErrDaemonRunning
	}
	defer lock.Unlock()

	comps, err := Build(cfg, logger)
	if err != nil {
		return pipeline.RunSummary{}, err
	}
	defer comps.Close()
	return comps.Runner.Run(ctx, pipeline.SnapshotFromConfig(cfg), trigger), nil
}

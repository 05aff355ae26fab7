package daemonrun_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/flock"

	"trendsub/internal/config"
	"trendsub/internal/daemonrun"
	"trendsub/internal/history"
	"trendsub/internal/logging"
	"trendsub/internal/scheduler"
	"trendsub/internal/testsupport"
)

func TestRunOnceSubscribesTrendingMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/trending/movie/week":
			_, _ = w.Write([]byte(`{"page":1,"results":[{"id":603,"title":"The Matrix","release_date":"1999-03-31","vote_average":8.2}]}`))
		case "/movie/603":
			_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","release_date":"1999-03-31","vote_average":8.2}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithTMDBBaseURL(server.URL),
		testsupport.WithCategories(config.Category{
			Key:       "tmdb_trending_movie",
			Name:      "TMDB Trending Movies",
			Enabled:   true,
			Strategy:  "tmdb",
			URL:       "trending/movie/week",
			MediaType: "movie",
		}),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}

	ctx := context.Background()
	summary, err := daemonrun.RunOnce(ctx, cfg, logging.NewNop(), scheduler.TriggerManual)
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(summary.Added) != 1 || summary.Added[0].Title != "The Matrix" {
		t.Fatalf("unexpected summary %#v", summary)
	}

	again, err := daemonrun.RunOnce(ctx, cfg, logging.NewNop(), scheduler.TriggerManual)
	if err != nil {
		t.Fatalf("second RunOnce returned error: %v", err)
	}
	if len(again.Added) != 0 {
		t.Fatalf("expected processed key to suppress second run, got %#v", again.Added)
	}

	comps, err := daemonrun.Build(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	t.Cleanup(func() { _ = comps.Close() })
	subs, err := comps.Store.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions returned error: %v", err)
	}
	if len(subs) != 1 || subs[0].TMDBID != 603 {
		t.Fatalf("unexpected subscriptions %#v", subs)
	}
	records, err := comps.History.List(ctx)
	if err != nil {
		t.Fatalf("History.List returned error: %v", err)
	}
	if len(records) != 1 || records[0].UniqueKey != "movie_603" {
		t.Fatalf("unexpected history %#v", records)
	}
}

func TestBuildRequiresTMDBKey(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBKey(""))
	if _, err := daemonrun.Build(cfg, nil); err == nil {
		t.Fatal("expected error without tmdb api key")
	}
}

func TestRunOnceRefusesWhileLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCategories())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}

	_, err = daemonrun.RunOnce(context.Background(), cfg, logging.NewNop(), scheduler.TriggerManual)
	if !errors.Is(err, daemonrun.ErrDaemonRunning) {
		t.Fatalf("expected ErrDaemonRunning, got %v", err)
	}

	if err := held.Unlock(); err != nil {
		t.Fatalf("Unlock returned error: %v", err)
	}
	if _, err := daemonrun.RunOnce(context.Background(), cfg, logging.NewNop(), scheduler.TriggerManual); err != nil {
		t.Fatalf("RunOnce after unlock returned error: %v", err)
	}
	again := flock.New(cfg.LockPath())
	if ok, err := again.TryLock(); err != nil || !ok {
		t.Fatalf("expected RunOnce to release the lock, TryLock = %v, %v", ok, err)
	}
	_ = again.Unlock()
}

func TestClearHistoryReleasesDoubanKeys(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	comps, err := daemonrun.Build(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	t.Cleanup(func() { _ = comps.Close() })

	ctx := context.Background()
	keys := []string{"doubanrank: Movie X (DB:123)", "doubanrank: Show Y (DB:456)", "tv_1399"}
	for _, key := range keys {
		if err := comps.History.Append(ctx, history.Record{Title: key, UniqueKey: key}); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
		if err := comps.Processed.MarkProcessed(key); err != nil {
			t.Fatalf("MarkProcessed returned error: %v", err)
		}
	}

	released, err := comps.ClearHistory(ctx)
	if err != nil {
		t.Fatalf("ClearHistory returned error: %v", err)
	}
	if released != 2 {
		t.Fatalf("expected 2 released keys, got %d", released)
	}
	records, err := comps.History.List(ctx)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty history, got %d records (%v)", len(records), err)
	}
	if comps.Processed.IsProcessed(keys[0]) || comps.Processed.IsProcessed(keys[1]) {
		t.Fatal("expected douban keys released")
	}
	if !comps.Processed.IsProcessed("tv_1399") {
		t.Fatal("expected tmdb key kept")
	}
}
